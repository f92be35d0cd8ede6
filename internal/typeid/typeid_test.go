package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	id := NewViewerID()
	if !strings.HasPrefix(id, PrefixViewer+"_") {
		t.Fatalf("id = %q", id)
	}
	if err := Validate(id, PrefixViewer); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := Validate(id, PrefixAsset); err == nil {
		t.Fatal("wrong prefix accepted")
	}
	if err := Validate("not-an-id", PrefixViewer); err == nil {
		t.Fatal("garbage accepted")
	}
	if NewAssetID() == NewAssetID() {
		t.Fatal("ids are not unique")
	}
}
