package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d, err := ParseDate("1990-04-23")
	require.NoError(t, err)

	out, err := json.Marshal(struct {
		Birthday *Date `json:"birthday"`
		Missing  *Date `json:"missing"`
	}{Birthday: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"birthday":"1990-04-23","missing":null}`, string(out))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2001-02-03", d.String())

	require.NoError(t, d.Scan([]byte("1999-12-31")))
	assert.Equal(t, "1999-12-31", d.String())

	assert.Error(t, d.Scan(42))
}

func TestYearsSince(t *testing.T) {
	d, err := ParseDate("2000-06-15")
	require.NoError(t, err)

	assert.Equal(t, 19, d.YearsSince(time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 20, d.YearsSince(time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{Prenom: "Ada", Nom: "Lovelace"}.DisplayName("x"))
	assert.Equal(t, "Ada", User{Prenom: "Ada"}.DisplayName("x"))
	assert.Equal(t, "Lovelace", User{Nom: "Lovelace"}.DisplayName("x"))
	assert.Equal(t, "ada@example.com", User{}.DisplayName("ada@example.com"))
}
