package models

import "strings"

// Project is a construction project the user can report against.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Element is one node of a project's classification hierarchy.
// ParentID points to the element one level up and is empty for partidas.
type Element struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// Elements is the full element hierarchy of one project, one slice per level.
type Elements struct {
	Partidas     []Element `json:"partidas"`
	Subpartidas  []Element `json:"subpartidas"`
	Conceptos    []Element `json:"conceptos"`
	Subconceptos []Element `json:"subconceptos"`
}

// ListFor returns the elements at the hierarchy level matching t.
func (e *Elements) ListFor(t ReportType) []Element {
	switch t {
	case ReportTypePartida:
		return e.Partidas
	case ReportTypeSubpartida:
		return e.Subpartidas
	case ReportTypeConcepto:
		return e.Conceptos
	case ReportTypeSubconcepto:
		return e.Subconceptos
	}
	return nil
}

// HierarchyPath builds the display string describing the position of the
// element objectID (at level t) within the project hierarchy, from the top
// level down, e.g. "Cimentación / Excavación / Plantilla". Returns "" when
// the element is unknown.
func (e *Elements) HierarchyPath(t ReportType, objectID string) string {
	levels := []ReportType{ReportTypePartida, ReportTypeSubpartida, ReportTypeConcepto, ReportTypeSubconcepto}

	depth := -1
	for i, level := range levels {
		if level == t {
			depth = i
			break
		}
	}
	if depth < 0 {
		return ""
	}

	names := make([]string, 0, depth+1)
	id := objectID
	for i := depth; i >= 0; i-- {
		el, ok := findElement(e.ListFor(levels[i]), id)
		if !ok {
			return ""
		}
		names = append(names, el.Name)
		id = el.ParentID
	}

	// Walked bottom-up; reverse for top-down display.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " / ")
}

func findElement(list []Element, id string) (Element, bool) {
	for _, el := range list {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// UnitType is a measurement unit for report quantities.
type UnitType struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// DefaultUnitTypes is the built-in unit set used when both the live fetch
// and the cache are unavailable.
func DefaultUnitTypes() []UnitType {
	return []UnitType{
		{ID: "1", Name: "Metros", Symbol: "m"},
		{ID: "2", Name: "Metros cuadrados", Symbol: "m²"},
		{ID: "3", Name: "Metros cúbicos", Symbol: "m³"},
		{ID: "4", Name: "Kilogramos", Symbol: "kg"},
		{ID: "5", Name: "Toneladas", Symbol: "ton"},
		{ID: "6", Name: "Unidades", Symbol: "unit"},
		{ID: "7", Name: "Horas", Symbol: "hour"},
		{ID: "8", Name: "Días", Symbol: "day"},
	}
}
