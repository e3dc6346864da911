package guard

import "testing"

func TestGuard_Lifecycle(t *testing.T) {
	formDirty := false
	dialogDirty := false
	g := New(func() bool { return formDirty })
	g.Track(func() bool { return dialogDirty })

	if g.Blocking() {
		t.Fatal("clean guard blocks")
	}

	formDirty = true
	if !g.Blocking() {
		t.Fatal("dirty form does not block")
	}

	// Submit and cancel release the gate even though the dirty flag is
	// still set in memory.
	g.Release()
	if g.Blocking() {
		t.Fatal("released guard blocks")
	}

	// The next edit re-arms it.
	g.Rearm()
	if !g.Blocking() {
		t.Fatal("rearmed guard does not block")
	}
}

func TestGuard_DialogDirtinessFeedsAggregate(t *testing.T) {
	dialogDirty := false
	g := New(func() bool { return false }, func() bool { return dialogDirty })

	if g.Blocking() {
		t.Fatal("clean guard blocks")
	}
	dialogDirty = true
	if !g.Blocking() {
		t.Fatal("dialog dirtiness ignored")
	}
}

func TestGuard_Confirm(t *testing.T) {
	dirty := true
	g := New(func() bool { return dirty })

	asked := 0
	allow := func(string) bool { asked++; return true }
	deny := func(string) bool { asked++; return false }

	if !g.Confirm(allow) {
		t.Fatal("confirmed discard rejected")
	}
	if g.Confirm(deny) {
		t.Fatal("denied discard accepted")
	}
	if asked != 2 {
		t.Fatalf("prompt invoked %d times", asked)
	}

	dirty = false
	if !g.Confirm(deny) {
		t.Fatal("clean guard prompted")
	}
	if asked != 2 {
		t.Fatal("clean guard invoked prompt")
	}
}
