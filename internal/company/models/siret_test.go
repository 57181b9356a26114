package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConsistent(t *testing.T) {
	cases := []struct {
		name              string
		siret, siren, nic int64
		want              bool
	}{
		{"full width siret", 73282932000074, 732829320, 74, true},
		{"short siren passes the width check", 12345600789, 123456, 789, true},
		{"zero nic", 12345678900000, 123456789, 0, true},
		{"widest nic", 12345678999999, 123456789, 99999, true},
		{"composition mismatch", 123456780, 123456, 789, false},
		{"nic not padded in siret", 123456789, 123456, 789, false},
		{"siret longer than fourteen digits", 141234567800789, 1412345678, 789, false},
		{"swapped parts", 78912345600000, 123456, 789, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsConsistent(tc.siret, tc.siren, tc.nic))
		})
	}
}

func TestIsConsistentHoldsForComposedIdentifiers(t *testing.T) {
	sirens := []int64{100000000, 123456789, 552100554, 999999999}
	nics := []int64{0, 1, 12, 789, 10000, 99999}
	for _, siren := range sirens {
		for _, nic := range nics {
			siret := siren*100000 + nic
			assert.True(t, IsConsistent(siret, siren, nic), "siren=%d nic=%d", siren, nic)
			assert.False(t, IsConsistent(siret+1, siren, nic), "siren=%d nic=%d", siren, nic)
		}
	}
}

func TestComposeSiret(t *testing.T) {
	assert.Equal(t, "12345600789", ComposeSiret(123456, 789))
	assert.Equal(t, "12345678900000", ComposeSiret(123456789, 0))
	assert.Equal(t, "123456123456", ComposeSiret(123456, 123456), "wide nic is not truncated")
}
