package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJoinIndex(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitIndex(" a, b,,a ,c "))
	assert.Nil(t, SplitIndex(""))
	assert.Equal(t, "a, b", JoinIndex([]string{"a", " b", "a", ""}))
}

func TestFieldCoercion(t *testing.T) {
	assert.Equal(t, "12", FieldString(json.Number("12")))
	assert.Equal(t, "3", FieldString(float64(3)))
	assert.Equal(t, "", FieldString(nil))

	n, ok := FieldInt("  ")
	assert.True(t, ok)
	assert.Zero(t, n)
	n, ok = FieldInt("7")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = FieldInt("seven")
	assert.False(t, ok)

	assert.Equal(t, 5, WireScope("5"))
	assert.Equal(t, 0, WireScope(""))
	assert.Equal(t, "X1", WireScope("X1"))
}

func TestNormalizeScope(t *testing.T) {
	f := Fields{FieldSocietyID: "0", FieldCediID: "12"}
	NormalizeScope(f)
	assert.Equal(t, 0, f[FieldCediID])

	f = Fields{FieldSocietyID: 3, FieldCediID: "12"}
	NormalizeScope(f)
	assert.Equal(t, "12", f[FieldCediID])

	f = Fields{FieldCediID: "12"}
	NormalizeScope(f)
	assert.Equal(t, "12", f[FieldCediID])
}

func TestApplyFields(t *testing.T) {
	l := NewLabel(Fields{FieldLabelID: "L1", FieldSequence: "4", FieldName: "n"})
	assert.Equal(t, "0", l.SocietyID)
	assert.Equal(t, 4, l.Sequence)
	assert.NotNil(t, l.Values)

	ApplyLabelFields(&l, Fields{FieldSequence: "bogus", FieldRoute: "/x", "UNKNOWN": 1})
	assert.Equal(t, 4, l.Sequence)
	assert.Equal(t, "/x", l.Route)

	v := NewValue(Fields{FieldValueID: "V1", FieldParentValueID: nil, FieldCediID: json.Number("9")})
	assert.Equal(t, "", v.ParentValueID)
	assert.Equal(t, "9", v.CediID)

	fields := ValueFields(v)
	assert.Nil(t, fields[FieldParentValueID])
	assert.Equal(t, 9, fields[FieldCediID])
}

func TestRowUnion(t *testing.T) {
	l := Label{LabelID: "L1", Status: StatusModified, Values: []Value{{ValueID: "V1", LabelID: "L1"}}}
	lr := LabelRow(l)
	vr := ValueRow(l.Values[0])

	assert.Equal(t, "label:L1", lr.Key())
	assert.Equal(t, "value:V1", vr.Key())
	assert.Equal(t, "L1", vr.OwnerID())
	assert.Equal(t, "", lr.OwnerID())
	assert.Equal(t, StatusModified, lr.Status())
	assert.Equal(t, CollectionValues, vr.Kind.Collection())

	c := lr.Clone()
	c.Label.Values[0].Value = "changed"
	assert.Empty(t, lr.Label.Values[0].Value)
}

func TestPayloadWireShape(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		want string
	}{
		{
			name: "create",
			op:   NewCreate(CollectionLabels, Fields{FieldLabelID: "L1", FieldSequence: 2}),
			want: `{"collection":"labels","action":"CREATE","payload":{"IDETIQUETA":"L1","SECUENCIA":2}}`,
		},
		{
			name: "update value",
			op:   NewUpdate(CollectionValues, "V1", "L1", Fields{FieldValue: "x"}),
			want: `{"collection":"values","action":"UPDATE","payload":{"IDETIQUETA":"L1","id":"V1","updates":{"VALOR":"x"}}}`,
		},
		{
			name: "delete label",
			op:   NewDelete(CollectionLabels, "L1", ""),
			want: `{"collection":"labels","action":"DELETE","payload":{"id":"L1"}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.op)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(b))
		})
	}
}

func TestPayloadDecode(t *testing.T) {
	var op Operation
	require.NoError(t, json.Unmarshal([]byte(`{"collection":"values","action":"UPDATE","payload":{"id":"V1","IDETIQUETA":"L1","updates":{"SECUENCIA":3}}}`), &op))
	assert.Equal(t, "V1", op.Payload.ID)
	assert.Equal(t, "L1", op.Payload.LabelID)
	assert.Equal(t, json.Number("3"), op.Payload.Updates[FieldSequence])

	op = Operation{}
	require.NoError(t, json.Unmarshal([]byte(`{"collection":"labels","action":"CREATE","payload":{"IDETIQUETA":"L2"}}`), &op))
	assert.Equal(t, "L2", op.NaturalKey())
	assert.Equal(t, "L2", op.TargetID())

	op = Operation{}
	assert.Error(t, json.Unmarshal([]byte(`{"payload":{"id":"x","updates":[1]}}`), &op))
}

func TestParseActionAndCollection(t *testing.T) {
	a, err := ParseAction(" update ")
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, a)
	_, err = ParseAction("merge")
	assert.Error(t, err)

	c, err := ParseCollection("Values")
	require.NoError(t, err)
	assert.Equal(t, CollectionValues, c)
	_, err = ParseCollection("rows")
	assert.Error(t, err)
}
