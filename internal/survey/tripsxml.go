package survey

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
)

// The XML trip log is the detailed-geometry export written by the blade
// guidance recorder. Unlike the hand-edited CSVs it is machine-written,
// so a document that fails to decode is a load error, not a row drop.

type xmlTrips struct {
	XMLName xml.Name  `xml:"trips"`
	Trips   []xmlTrip `xml:"trip"`
}

type xmlTrip struct {
	Index  int        `xml:"index,attr"`
	BankCY float64    `xml:"bank_cy,attr"`
	Start  xmlCoord   `xml:"start"`
	End    xmlCoord   `xml:"end"`
	Detail *xmlDetail `xml:"detail"`
}

type xmlCoord struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type xmlDetail struct {
	CutStart    *xmlCoord   `xml:"cut_start"`
	CutStop     *xmlCoord   `xml:"cut_stop"`
	FillStart   *xmlCoord   `xml:"fill_start"`
	FillStop    *xmlCoord   `xml:"fill_stop"`
	CutLengthM  float64     `xml:"cut_length_m"`
	HeadingDeg  *float64    `xml:"heading_deg"`
	CutProfile  *xmlProfile `xml:"cut_profile"`
	FillProfile *xmlProfile `xml:"fill_profile"`
}

type xmlProfile struct {
	Points []xmlPoint `xml:"point"`
}

type xmlPoint struct {
	DistanceM float64 `xml:"distance_m,attr"`
	DepthM    float64 `xml:"depth_m,attr"`
}

// LoadTripsXML reads a detailed trip log, including cut/fill segment
// endpoints and measured cross-section profiles. Profile points are
// sorted by distance on load so depth interpolation can assume ascending
// order. Trips are returned sorted by index ascending. Files ending in
// .gz are decompressed.
func LoadTripsXML(path string) ([]field.TripRecord, error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, fmt.Errorf("open trips XML: %w", err)
	}
	defer r.Close()
	return ReadTripsXML(r)
}

// ReadTripsXML parses a trip log document from an open stream.
func ReadTripsXML(r io.Reader) ([]field.TripRecord, error) {
	var doc xmlTrips
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode trips XML: %w", err)
	}

	trips := make([]field.TripRecord, 0, len(doc.Trips))
	for _, xt := range doc.Trips {
		trip := field.TripRecord{
			Index:   xt.Index,
			BankYd3: xt.BankCY,
			Start:   xt.Start.latLon(),
			End:     xt.End.latLon(),
		}
		if xt.Detail != nil {
			trip.Detail = &field.TripDetail{
				CutStart:    xt.Detail.CutStart.latLonPtr(),
				CutStop:     xt.Detail.CutStop.latLonPtr(),
				FillStart:   xt.Detail.FillStart.latLonPtr(),
				FillStop:    xt.Detail.FillStop.latLonPtr(),
				CutLengthM:  xt.Detail.CutLengthM,
				HeadingDeg:  xt.Detail.HeadingDeg,
				CutProfile:  xt.Detail.CutProfile.profile(),
				FillProfile: xt.Detail.FillProfile.profile(),
			}
		}
		trips = append(trips, trip)
	}

	sort.SliceStable(trips, func(i, j int) bool { return trips[i].Index < trips[j].Index })
	field.Diagf("loaded %d trips from XML", len(trips))
	return trips, nil
}

func (x xmlCoord) latLon() field.LatLon {
	return field.LatLon{Lat: x.Lat, Lon: x.Lon}
}

func (x *xmlCoord) latLonPtr() *field.LatLon {
	if x == nil {
		return nil
	}
	ll := x.latLon()
	return &ll
}

func (x *xmlProfile) profile() field.Profile {
	if x == nil || len(x.Points) == 0 {
		return nil
	}
	p := make(field.Profile, len(x.Points))
	for i, pt := range x.Points {
		p[i] = field.ProfilePoint{DistM: pt.DistanceM, DepthM: pt.DepthM}
	}
	sort.SliceStable(p, func(i, j int) bool { return p[i].DistM < p[j].DistM })
	return p
}
