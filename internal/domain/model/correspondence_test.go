package model

import "testing"

func TestIsValidType(t *testing.T) {
	tests := []struct {
		name string
		t    string
		want bool
	}{
		{"paquete", "Paquete", true},
		{"carta", "Carta", true},
		{"certificado", "Certificado", true},
		{"неизвестный тип", "Postal", false},
		{"пустая строка", "", false},
		{"другой регистр", "paquete", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidType(tt.t); got != tt.want {
				t.Errorf("IsValidType(%q) = %v, ожидалось %v", tt.t, got, tt.want)
			}
		})
	}
}
