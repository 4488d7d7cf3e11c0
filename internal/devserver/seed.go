package devserver

import "catalog-editor/internal/model"

// SampleCatalog is a small catalog with the two reference labels and one ordinary
// label whose values point at each other.
func SampleCatalog() []model.Label {
	scope := func(vals ...model.Value) []model.Value {
		for i := range vals {
			if vals[i].SocietyID == "" {
				vals[i].SocietyID = model.AllScope
			}
			if vals[i].CediID == "" {
				vals[i].CediID = model.AllScope
			}
		}
		return vals
	}
	return []model.Label{
		{
			SocietyID: model.AllScope, CediID: model.AllScope,
			LabelID: model.SocietyCatalogID, Name: "Sociedades", Collection: "catalogos", Sequence: 1,
			Values: scope(
				model.Value{LabelID: model.SocietyCatalogID, ValueID: "1", Value: "Sociedad Norte", Sequence: 1},
				model.Value{LabelID: model.SocietyCatalogID, ValueID: "2", Value: "Sociedad Sur", Sequence: 2},
			),
		},
		{
			SocietyID: model.AllScope, CediID: model.AllScope,
			LabelID: model.CediCatalogID, Name: "Centros de distribucion", Collection: "catalogos", Sequence: 2,
			Values: scope(
				model.Value{LabelID: model.CediCatalogID, ValueID: "10", ParentValueID: "1", Value: "Cedi Monterrey", Sequence: 1},
				model.Value{LabelID: model.CediCatalogID, ValueID: "20", ParentValueID: "2", Value: "Cedi Merida", Sequence: 2},
			),
		},
		{
			SocietyID: "1", CediID: "10",
			LabelID: "COLORES", Name: "Colores", Index: "producto,color", Collection: "productos",
			Section: "atributos", Sequence: 3, Description: "Colores de producto",
			Values: scope(
				model.Value{SocietyID: "1", CediID: "10", LabelID: "COLORES", ValueID: "ROJO", Value: "Rojo", Alias: "R", Sequence: 1},
				model.Value{SocietyID: "1", CediID: "10", LabelID: "COLORES", ValueID: "AZUL", Value: "Azul", Alias: "A", Sequence: 2},
				model.Value{SocietyID: "1", CediID: "10", LabelID: "COLORES", ValueID: "AZUL_MARINO", ParentValueID: "AZUL", Value: "Azul marino", Sequence: 3},
			),
		},
	}
}
