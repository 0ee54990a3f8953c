package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/registry"
	"github.com/giygas/israeldrugs-mcp/registry/registrytest"
)

func acamolFake() *registrytest.Fake {
	return &registrytest.Fake{
		NameFunc: func(p entities.NameParams) (entities.NamePage, error) {
			return entities.NamePage{Results: []entities.DrugRecord{{
				RegistrationNumber: "020 16 20536 00",
				EnglishName:        "ACAMOL",
				ActiveIngredients:  []string{"PARACETAMOL 500MG"},
			}}}, nil
		},
		DetailFunc: func(regNum string) (entities.DrugDetail, error) {
			return entities.DrugDetail{
				RegistrationNumber: regNum,
				Atc:                []entities.AtcClassification{{Level4Code: "N02BE  ", Level5Code: "N02BE01"}},
			}, nil
		},
	}
}

func TestResolve_PrefersAtcOverIngredient(t *testing.T) {
	fake := acamolFake()

	ref, err := New(fake).Resolve(context.Background(), "Acamol")
	require.NoError(t, err)

	assert.Equal(t, entities.KindAtcCode, ref.Criterion.Kind())
	assert.Equal(t, "N02BE", ref.Criterion.Value())
	assert.Equal(t, "020 16 20536 00", ref.RegistrationNumber)
	assert.Equal(t, "Acamol", ref.ReferenceName)
	assert.Equal(t, "ACAMOL", ref.MatchedName)

	nameCalls := fake.CallsTo("name")
	require.Len(t, nameCalls, 1)
	assert.Equal(t, entities.NameParams{Term: "Acamol", Prescription: entities.AllDrugs, Page: 1}, nameCalls[0].Name)
	assert.Len(t, fake.CallsTo("detail"), 1)
}

func TestResolve_DetailFailureFallsBackToIngredient(t *testing.T) {
	fake := acamolFake()
	fake.DetailFunc = func(string) (entities.DrugDetail, error) {
		return entities.DrugDetail{}, registry.ErrNotFound
	}

	ref, err := New(fake).Resolve(context.Background(), "Acamol")
	require.NoError(t, err)
	assert.Equal(t, entities.KindActiveIngredient, ref.Criterion.Kind())
	assert.Equal(t, "PARACETAMOL", ref.Criterion.Value())
}

func TestResolve_DetailWithoutAtcFallsBackToIngredient(t *testing.T) {
	fake := acamolFake()
	fake.DetailFunc = func(regNum string) (entities.DrugDetail, error) {
		return entities.DrugDetail{RegistrationNumber: regNum, Atc: []entities.AtcClassification{{Level4Code: "   "}}}, nil
	}

	ref, err := New(fake).Resolve(context.Background(), "Acamol")
	require.NoError(t, err)
	assert.Equal(t, "PARACETAMOL", ref.Criterion.Value())
}

func TestResolve_UnknownDrugIsNotFound(t *testing.T) {
	fake := &registrytest.Fake{}

	_, err := New(fake).Resolve(context.Background(), "UnknownDrugXYZ123")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrDrugNotFound)
	assert.False(t, errors.Is(err, entities.ErrResolutionIncomplete))
	assert.Empty(t, fake.CallsTo("detail"))
}

func TestResolve_IncompleteCarriesRegistrationNumber(t *testing.T) {
	fake := &registrytest.Fake{
		NameFunc: func(entities.NameParams) (entities.NamePage, error) {
			return entities.NamePage{Results: []entities.DrugRecord{{RegistrationNumber: "777"}}}, nil
		},
	}

	_, err := New(fake).Resolve(context.Background(), "Mystery")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrResolutionIncomplete)

	var resErr *entities.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "777", resErr.RegistrationNumber)
}

func TestResolve_UpstreamFailurePropagates(t *testing.T) {
	fake := &registrytest.Fake{
		NameFunc: func(entities.NameParams) (entities.NamePage, error) {
			return entities.NamePage{}, &entities.UpstreamError{Op: "search_by_name", Err: errors.New("connection refused")}
		},
	}

	_, err := New(fake).Resolve(context.Background(), "Acamol")
	assert.ErrorIs(t, err, entities.ErrUpstreamUnavailable)
}

func TestResolve_UntypedClientErrorsAreUpstream(t *testing.T) {
	for _, cause := range []error{errors.New("connection reset"), registry.ErrNotFound} {
		fake := &registrytest.Fake{
			NameFunc: func(entities.NameParams) (entities.NamePage, error) {
				return entities.NamePage{}, cause
			},
		}

		_, err := New(fake).Resolve(context.Background(), "Acamol")
		require.Error(t, err)
		var upErr *entities.UpstreamError
		assert.ErrorAs(t, err, &upErr, cause.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, entities.Retryable(err), cause.Error())
	}
}

func TestResolve_CanceledStaysContextError(t *testing.T) {
	fake := &registrytest.Fake{
		NameFunc: func(entities.NameParams) (entities.NamePage, error) {
			return entities.NamePage{}, context.Canceled
		},
	}

	_, err := New(fake).Resolve(context.Background(), "Acamol")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, entities.Retryable(err))
}

func TestLeadingIngredient(t *testing.T) {
	assert.Equal(t, "PARACETAMOL", leadingIngredient([]string{"PARACETAMOL 500MG", "CAFFEINE"}))
	assert.Equal(t, "IBUPROFEN", leadingIngredient([]string{"  IBUPROFEN"}))
	assert.Equal(t, "", leadingIngredient(nil))
	assert.Equal(t, "", leadingIngredient([]string{"   "}))
}
