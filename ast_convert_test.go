package binpac

import (
	"testing"

	"github.com/binpac-go/binpac/sourceparse"
)

func convertSource(t *testing.T, src string) *Module {
	t.Helper()
	tree, err := sourceparse.Parse("test.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	mod, err := Convert(tree)
	if err != nil {
		t.Fatalf("Convert returned an error: %v", err)
	}
	return mod
}

func TestConvertMarksExportedUnits(t *testing.T) {
	mod := convertSource(t, `module M;

export unit A {
	x: uint8;
};

unit B {
	y: uint8;
};
`)
	if !mod.Exported["A"] {
		t.Fatal("expected unit A to be marked exported")
	}
	if mod.Exported["B"] {
		t.Fatal("did not expect unit B to be marked exported")
	}
}

func TestConvertFieldAttributeKeyDropsAmpersand(t *testing.T) {
	mod := convertSource(t, `module M;

export unit U {
	data: bytes &length=4;
};
`)
	unit := mod.Decls[0].UnitValue
	attr, ok := unit.Fields[0].Attrs.Get("length")
	if !ok {
		t.Fatal("expected a \"length\" attribute key (without the leading &)")
	}
	if attr.Value == nil || attr.Value.IntVal != 4 {
		t.Fatalf("expected the &length value to be 4, got %+v", attr.Value)
	}
}

func TestConvertUnitPropertyKeyDropsPercent(t *testing.T) {
	mod := convertSource(t, `module M;

export unit U {
	%mime-type = "text/plain";
	data: bytes &length=4;
};
`)
	unit := mod.Decls[0].UnitValue
	if len(unit.Properties) != 1 || unit.Properties[0].Key != "mime-type" {
		t.Fatalf("expected a \"mime-type\" property (without the leading %%), got %+v", unit.Properties)
	}
}

func TestConvertIntegerTypeWidthAndSign(t *testing.T) {
	mod := convertSource(t, `module M;

export unit U {
	a: uint8;
	b: int32;
};
`)
	fields := mod.Decls[0].UnitValue.Fields
	if fields[0].Typ.Width != 8 || fields[0].Typ.Signed {
		t.Fatalf("expected a uint8 field, got %+v", fields[0].Typ)
	}
	if fields[1].Typ.Width != 32 || !fields[1].Typ.Signed {
		t.Fatalf("expected an int32 field, got %+v", fields[1].Typ)
	}
}

func TestConvertBytesCtorField(t *testing.T) {
	mod := convertSource(t, `module M;

export unit U {
	magic: b"HELO";
};
`)
	field := mod.Decls[0].UnitValue.Fields[0]
	if field.Ctor == nil || field.Ctor.Kind != CtorBytes {
		t.Fatalf("expected a bytes ctor field, got %+v", field)
	}
	if string(field.Ctor.Bytes) != "HELO" {
		t.Fatalf("expected ctor bytes %q, got %q", "HELO", field.Ctor.Bytes)
	}
}
