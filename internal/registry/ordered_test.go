package registry

import "testing"

func TestOrderedMap_SetPreservesPosition(t *testing.T) {
	m := NewOrderedMap[string, int]()

	if !m.Set("a", 1) {
		t.Error("Set(a) reported existing key")
	}
	m.Set("b", 2)
	m.Set("c", 3)

	if m.Set("a", 10) {
		t.Error("overwrite of a reported new key")
	}

	keys := m.Keys()
	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	vals := m.Values()
	if vals[0] != 10 || vals[1] != 2 || vals[2] != 3 {
		t.Errorf("Values() = %v, want [10 2 3]", vals)
	}
}

func TestOrderedMap_Delete(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	v, ok := m.Delete("b")
	if !ok || v != 2 {
		t.Errorf("Delete(b) = %d, %v, want 2, true", v, ok)
	}
	if _, ok := m.Delete("b"); ok {
		t.Error("second Delete(b) reported success")
	}
	if m.Has("b") {
		t.Error("b still present")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	// Re-adding a deleted key appends it.
	m.Set("b", 20)
	keys := m.Keys()
	if keys[2] != "b" {
		t.Errorf("Keys() = %v, want b last", keys)
	}
}

func TestOrderedMap_GetMissing(t *testing.T) {
	m := NewOrderedMap[string, int]()
	if _, ok := m.Get("nope"); ok {
		t.Error("Get on empty map reported a value")
	}
}

func TestOrderedMap_Clear(t *testing.T) {
	m := NewOrderedMap[int, string]()
	m.Set(1, "a")
	m.Set(2, "b")
	m.Clear()

	if m.Len() != 0 || len(m.Values()) != 0 {
		t.Errorf("after Clear Len() = %d, want 0", m.Len())
	}
	m.Set(3, "c")
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestOrderedMap_KeysIsCopy(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("a", 1)
	keys := m.Keys()
	keys[0] = "mutated"

	if m.Keys()[0] != "a" {
		t.Error("Keys() exposed internal slice")
	}
}
