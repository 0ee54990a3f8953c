// Package registrytest provides a scripted in-memory RegistryClient for tests.
package registrytest

import (
	"context"
	"strconv"
	"sync"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
)

var _ interfaces.RegistryClient = (*Fake)(nil)

// Call records one invocation of the fake.
type Call struct {
	Op      string
	Name    entities.NameParams
	Symptom entities.SymptomParams
	Generic entities.GenericParams
	RegNum  string
	Suggest entities.AutocompleteParams
}

// Fake answers with the configured functions; a nil function answers with
// an empty result. Every call is recorded.
type Fake struct {
	NameFunc         func(entities.NameParams) (entities.NamePage, error)
	SymptomFunc      func(entities.SymptomParams) (entities.NamePage, error)
	GenericFunc      func(entities.GenericParams) ([]entities.DrugRecord, error)
	DetailFunc       func(string) (entities.DrugDetail, error)
	AutocompleteFunc func(entities.AutocompleteParams) ([]string, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns a copy of the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one operation.
func (f *Fake) CallsTo(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) SearchByName(ctx context.Context, params entities.NameParams) (entities.NamePage, error) {
	f.record(Call{Op: "name", Name: params})
	if err := ctx.Err(); err != nil {
		return entities.NamePage{}, err
	}
	if f.NameFunc == nil {
		return entities.NamePage{}, nil
	}
	return f.NameFunc(params)
}

func (f *Fake) SearchBySymptom(ctx context.Context, params entities.SymptomParams) (entities.NamePage, error) {
	f.record(Call{Op: "symptom", Symptom: params})
	if err := ctx.Err(); err != nil {
		return entities.NamePage{}, err
	}
	if f.SymptomFunc == nil {
		return entities.NamePage{}, nil
	}
	return f.SymptomFunc(params)
}

func (f *Fake) SearchGeneric(ctx context.Context, params entities.GenericParams) ([]entities.DrugRecord, error) {
	f.record(Call{Op: "generic", Generic: params})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.GenericFunc == nil {
		return nil, nil
	}
	return f.GenericFunc(params)
}

func (f *Fake) GetDrugDetail(ctx context.Context, registrationNumber string) (entities.DrugDetail, error) {
	f.record(Call{Op: "detail", RegNum: registrationNumber})
	if err := ctx.Err(); err != nil {
		return entities.DrugDetail{}, err
	}
	if f.DetailFunc == nil {
		return entities.DrugDetail{}, nil
	}
	return f.DetailFunc(registrationNumber)
}

func (f *Fake) Autocomplete(ctx context.Context, params entities.AutocompleteParams) ([]string, error) {
	f.record(Call{Op: "autocomplete", Suggest: params})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.AutocompleteFunc == nil {
		return nil, nil
	}
	return f.AutocompleteFunc(params)
}

// Drugs builds n placeholder records with distinct registration numbers.
func Drugs(prefix string, n int) []entities.DrugRecord {
	out := make([]entities.DrugRecord, n)
	for i := range out {
		out[i] = entities.DrugRecord{
			RegistrationNumber: prefix + "-" + strconv.Itoa(i+1),
			EnglishName:        prefix,
			IsActive:           true,
		}
	}
	return out
}
