package factura

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Validate(t *testing.T) {
	t.Run("all missing are listed", func(t *testing.T) {
		err := Query{}.Validate()
		require.Error(t, err)

		var ferr *Error
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, KindValidation, ferr.Kind)
		assert.Equal(t, http.StatusBadRequest, ferr.Kind.HTTPStatus())
		assert.ElementsMatch(t, []string{FieldAnyKey, FieldEPS, FieldInstitucionID, FieldIDUser}, ferr.Details)
	})

	t.Run("only missing eps", func(t *testing.T) {
		err := Query{Clave: "K", InstitucionID: "14", IDUser: "u"}.Validate()
		var ferr *Error
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, []string{FieldEPS}, ferr.Details)
	})

	t.Run("any single key is enough", func(t *testing.T) {
		for _, q := range []Query{
			{Clave: "k"}, {NumeroFactura: "1"}, {NumeroAdmision: "2"}, {IDAdmision: "3"},
		} {
			q.EPS, q.InstitucionID, q.IDUser = "x", "14", "u"
			assert.NoError(t, q.Validate())
		}
	})
}

func TestQuery_Keys(t *testing.T) {
	q := Query{Clave: "K", NumeroAdmision: "N"}
	assert.Equal(t, "N", q.SearchTerm())
	assert.Equal(t, "K", q.AnyKey())
	assert.False(t, q.AdmissionOnly())

	q = Query{IDAdmision: "77"}
	assert.Equal(t, "", q.SearchTerm())
	assert.True(t, q.AdmissionOnly())
	assert.Equal(t, "77", q.AdmissionKey())

	q = Query{NumeroFactura: "F1", NumeroAdmision: "N"}
	assert.False(t, q.AdmissionOnly())
}

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, KindUpstream.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindTransport.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}
