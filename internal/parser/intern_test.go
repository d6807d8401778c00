package parser

import (
	"fmt"
	"testing"
	"unsafe"
)

func TestStringIntern(t *testing.T) {
	si := NewStringIntern()

	a := si.Intern(string([]byte("Kesehatan")))
	b := si.Intern(string([]byte("Kesehatan")))
	if unsafe.StringData(a) != unsafe.StringData(b) {
		t.Error("Expected interned strings to share storage")
	}

	si.Intern("Energi")
	if si.Len() != 2 {
		t.Errorf("Expected pool size 2, got %d", si.Len())
	}
}

func TestStringInternCell(t *testing.T) {
	si := NewStringIntern()
	c := si.Cell("2022")
	if !c.Valid || c.Text != "2022" {
		t.Errorf("Expected present cell 2022, got %+v", c)
	}
}

func TestStringInternLimit(t *testing.T) {
	si := NewStringIntern()
	for i := 0; i < MaxInternPoolSize+10; i++ {
		si.Intern(fmt.Sprintf("value-%d", i))
	}
	if si.Len() != MaxInternPoolSize {
		t.Errorf("Expected pool capped at %d, got %d", MaxInternPoolSize, si.Len())
	}
}

func TestBuildTableInternsRepeatedValues(t *testing.T) {
	second := grant("Kesehatan", "Dasar", "2022", "2023", 2000000)
	second[0] = string([]byte("Kesehatan"))
	table := grantTable(t,
		grant("Kesehatan", "Dasar", "2022", "2022", 1000000),
		second,
	)
	a := table.Rows[0].Record.FocusArea.Text
	b := table.Rows[1].Record.FocusArea.Text
	if unsafe.StringData(a) != unsafe.StringData(b) {
		t.Error("Expected repeated focus area values to share storage")
	}
}
