package jinjago

import "testing"

func TestFromJSONScalars(t *testing.T) {
	tests := []struct {
		json string
		want string
	}{
		{`42`, "42"},
		{`3.5`, "3.5"},
		{`"hello"`, "hello"},
		{`true`, "true"},
		{`false`, "false"},
		{`null`, ""},
	}
	for _, tc := range tests {
		v, err := FromJSON([]byte(tc.json))
		if err != nil {
			t.Fatalf("FromJSON(%q) error = %v", tc.json, err)
		}
		if got := Stringify(v); got != tc.want {
			t.Errorf("FromJSON(%q) => %q, want %q", tc.json, got, tc.want)
		}
	}
}

func TestFromJSONPreservesIntVsFloat(t *testing.T) {
	v, err := FromJSON([]byte(`42`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if !v.IsInt() {
		t.Errorf("FromJSON(42).Kind() = %v, want integer", v.Kind())
	}
	v2, err := FromJSON([]byte(`42.0`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if !v2.IsFloat() {
		t.Errorf("FromJSON(42.0).Kind() = %v, want float", v2.Kind())
	}
}

func TestFromJSONArray(t *testing.T) {
	v, err := FromJSON([]byte(`[1, 2, 3]`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if !v.IsArray() || v.Len() != 3 {
		t.Fatalf("FromJSON([1,2,3]) = %v (kind %v, len %d), want array of length 3", v, v.Kind(), v.Len())
	}
	if v.Array()[1].Int() != 2 {
		t.Errorf("FromJSON([1,2,3])[1] = %d, want 2", v.Array()[1].Int())
	}
}

func TestFromJSONObject(t *testing.T) {
	v, err := FromJSON([]byte(`{"a": 1, "b": "two"}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if !v.IsMap() {
		t.Fatalf("FromJSON(object).Kind() = %v, want map", v.Kind())
	}
	a, _ := v.Map().Get("a")
	if a.Int() != 1 {
		t.Errorf(`FromJSON(object)["a"] = %d, want 1`, a.Int())
	}
	b, _ := v.Map().Get("b")
	if b.Str() != "two" {
		t.Errorf(`FromJSON(object)["b"] = %q, want %q`, b.Str(), "two")
	}
}

func TestFromJSONNestedUsableInTemplate(t *testing.T) {
	v, err := FromJSON([]byte(`{"users": [{"name": "Ada"}, {"name": "Alan"}]}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	ctx := NewValueMap()
	ctx.Set("data", v)
	got := evalStr(t, "{% for u in data.users %}{{ u.name }} {% endfor %}", ctx)
	if got != "Ada Alan " {
		t.Errorf("got %q, want %q", got, "Ada Alan ")
	}
}

func TestFromJSONInvalidErrors(t *testing.T) {
	_, err := FromJSON([]byte(`{not valid json`))
	if err == nil {
		t.Error("FromJSON(invalid): want error, got nil")
	}
}
