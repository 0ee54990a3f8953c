package registry

import (
	"fmt"
	"strings"

	"github.com/giygas/israeldrugs-mcp/entities"
)

// Request bodies, exactly as the registry expects them. The prescription
// field goes through entities.PrescriptionFilter.WireValue and nowhere else.

type nameRequest struct {
	Val            string `json:"val"`
	Prescription   bool   `json:"prescription"`
	HealthServices bool   `json:"healthServices"`
	PageIndex      int    `json:"pageIndex"`
	OrderBy        int    `json:"orderBy"`
}

type symptomRequest struct {
	PrimarySymp    string `json:"primarySymp"`
	SecondarySymp  string `json:"secondarySymp"`
	HealthServices bool   `json:"healthServices"`
	PageIndex      int    `json:"pageIndex"`
	Prescription   bool   `json:"prescription"`
	OrderBy        int    `json:"orderBy"`
}

type genericRequest struct {
	Val       *string `json:"val"`
	MatanID   *int    `json:"matanId"`
	AtcID     *string `json:"atcId"`
	PageIndex int     `json:"pageIndex"`
	OrderBy   int     `json:"orderBy"`
}

type detailRequest struct {
	DragRegNum string `json:"dragRegNum"`
}

type autocompleteRequest struct {
	Val                 string `json:"val"`
	IsSearchTradeName   bool   `json:"isSearchTradeName"`
	IsSearchTradeMarkiv bool   `json:"isSearchTradeMarkiv"`
}

// Response bodies. Decoding into these types is the shape check: a field of
// the wrong JSON type fails the whole response.

type wireComponent struct {
	ComponentName string `json:"componentName"`
}

type wireDrug struct {
	DragRegNum       string          `json:"dragRegNum"`
	DragHebName      string          `json:"dragHebName"`
	DragEnName       string          `json:"dragEnName"`
	ActiveComponents []wireComponent `json:"activeComponents"`
	Prescription     bool            `json:"prescription"`
	Health           bool            `json:"health"`
	IsCanceled       bool            `json:"iscanceled"`
	AtcCodes         []string        `json:"atc"`
	CustomerPrice    *float64        `json:"customerPrice"`
}

type searchEnvelope struct {
	Results []wireDrug `json:"results"`
	HasMore bool       `json:"hasMore"`
}

type wireAtc struct {
	Atc4Code string `json:"atc4Code"`
	Atc4Name string `json:"atc4Name"`
	Atc5Code string `json:"atc5Code"`
	Atc5Name string `json:"atc5Name"`
}

type wireDetail struct {
	DragRegNum       string          `json:"dragRegNum"`
	DragHebName      string          `json:"dragHebName"`
	DragEnName       string          `json:"dragEnName"`
	ActiveComponents []wireComponent `json:"activeComponents"`
	Atc              []wireAtc       `json:"atc"`
	DosageForm       string          `json:"dosageForm"`
	UsageForm        []string        `json:"usageForm"`
}

type wireSuggestion struct {
	Val string `json:"val"`
}

func (w wireDrug) toRecord() (entities.DrugRecord, error) {
	regNum := strings.TrimSpace(w.DragRegNum)
	if regNum == "" {
		return entities.DrugRecord{}, fmt.Errorf("drug record without registration number")
	}

	return entities.DrugRecord{
		RegistrationNumber:   regNum,
		HebrewName:           strings.TrimSpace(w.DragHebName),
		EnglishName:          strings.TrimSpace(w.DragEnName),
		ActiveIngredients:    componentNames(w.ActiveComponents),
		RequiresPrescription: w.Prescription,
		InHealthBasket:       w.Health,
		IsActive:             !w.IsCanceled,
		AtcCodes:             trimAll(w.AtcCodes),
		Price:                w.CustomerPrice,
	}, nil
}

func toRecords(wire []wireDrug) ([]entities.DrugRecord, error) {
	records := make([]entities.DrugRecord, 0, len(wire))
	for i, w := range wire {
		rec, err := w.toRecord()
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (w wireDetail) toDetail() entities.DrugDetail {
	atc := make([]entities.AtcClassification, 0, len(w.Atc))
	for _, a := range w.Atc {
		atc = append(atc, entities.AtcClassification{
			Level4Code: strings.TrimSpace(a.Atc4Code),
			Level4Name: strings.TrimSpace(a.Atc4Name),
			Level5Code: strings.TrimSpace(a.Atc5Code),
			Level5Name: strings.TrimSpace(a.Atc5Name),
		})
	}

	return entities.DrugDetail{
		RegistrationNumber: strings.TrimSpace(w.DragRegNum),
		HebrewName:         strings.TrimSpace(w.DragHebName),
		EnglishName:        strings.TrimSpace(w.DragEnName),
		ActiveIngredients:  componentNames(w.ActiveComponents),
		Atc:                atc,
		DosageForm:         w.DosageForm,
		Routes:             w.UsageForm,
	}
}

func componentNames(components []wireComponent) []string {
	names := make([]string, 0, len(components))
	for _, c := range components {
		if name := strings.TrimSpace(c.ComponentName); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}
