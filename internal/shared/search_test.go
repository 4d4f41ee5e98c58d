package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldSearchTerm(t *testing.T) {
	assert.Equal(t, "perez", FoldSearchTerm("Pérez"))
	assert.Equal(t, "cotizacion", FoldSearchTerm("  Cotización "))
	assert.Equal(t, "nunez", FoldSearchTerm("NÚÑEZ"))
	assert.Equal(t, "acero 12mm", FoldSearchTerm("Acero 12mm"))
	assert.Equal(t, "", FoldSearchTerm("   "))
}
