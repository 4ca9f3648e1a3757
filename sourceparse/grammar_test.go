package sourceparse

import "testing"

const headerSource = `module Tiny;

export unit Header {
	x: uint8;
	y: uint16;
};
`

func TestParseBasicUnit(t *testing.T) {
	f, err := Parse("header.bpac", []byte(headerSource))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if f.Module.Name != "Tiny" {
		t.Fatalf("module name = %q, want Tiny", f.Module.Name)
	}
	if len(f.Decls) != 1 {
		t.Fatalf("expected 1 top-level declaration, got %d", len(f.Decls))
	}
	decl := f.Decls[0]
	if !decl.Export {
		t.Fatal("expected the unit to be parsed as exported")
	}
	if decl.Unit == nil {
		t.Fatal("expected the declaration to parse as a unit")
	}
	if decl.Unit.Name != "Header" {
		t.Fatalf("unit name = %q, want Header", decl.Unit.Name)
	}
	if len(decl.Unit.Items) != 2 {
		t.Fatalf("expected 2 unit items, got %d", len(decl.Unit.Items))
	}
}

func TestParseUnexportedDecl(t *testing.T) {
	src := `module M;

unit Internal {
	x: uint8;
};
`
	f, err := Parse("m.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if f.Decls[0].Export {
		t.Fatal("did not expect the declaration to be marked exported")
	}
}

func TestParseSwitchFieldWithoutDiscriminant(t *testing.T) {
	src := `module M;

export unit Choice {
	switch() {
		b"HELO": greeting: b"HELO";
		b"QUIT": greeting: b"QUIT";
	}
};
`
	f, err := Parse("choice.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error parsing a discriminant-less switch: %v", err)
	}
	item := f.Decls[0].Unit.Items[0]
	if item.Field == nil || item.Field.Switch == nil {
		t.Fatal("expected the switch to parse as a field's Switch")
	}
	if item.Field.Switch.Discriminant != nil {
		t.Fatal("expected a discriminant-less switch to leave Discriminant nil")
	}
	if len(item.Field.Switch.Cases) != 2 {
		t.Fatalf("expected 2 switch cases, got %d", len(item.Field.Switch.Cases))
	}
}

func TestParseSwitchFieldWithDiscriminant(t *testing.T) {
	src := `module M;

export unit Choice {
	tag: uint8;
	switch(tag) {
		1: a: uint8;
		default: b: uint8;
	}
};
`
	f, err := Parse("choice.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	item := f.Decls[0].Unit.Items[1]
	if item.Field == nil || item.Field.Switch == nil {
		t.Fatal("expected the second item to parse as a switch field")
	}
	if item.Field.Switch.Discriminant == nil {
		t.Fatal("expected the switch's discriminant to be parsed")
	}
	if len(item.Field.Switch.Default) != 1 {
		t.Fatalf("expected 1 default-case field, got %d", len(item.Field.Switch.Default))
	}
}

func TestParseAttributesAndHooks(t *testing.T) {
	src := `module M;

export unit Item {
	tag: uint8 &synchronize;
	on tag {
		if (tag == 255) {
			stop;
		}
	}
};
`
	f, err := Parse("item.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	items := f.Decls[0].Unit.Items
	if len(items) != 2 {
		t.Fatalf("expected 2 unit items (field + hook), got %d", len(items))
	}
	if items[0].Field == nil || len(items[0].Field.Attrs) != 1 {
		t.Fatalf("expected the tag field to carry one attribute, got %+v", items[0].Field)
	}
	if items[1].Hook == nil || items[1].Hook.Field != "tag" {
		t.Fatalf("expected a standalone `on tag` hook item, got %+v", items[1].Hook)
	}
}

func TestParseMIMEPropertyAndBytesLength(t *testing.T) {
	src := `module M;

export unit Body {
	%mime-type = "text/plain";
	data: bytes &length=8;
};
`
	f, err := Parse("body.bpac", []byte(src))
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	items := f.Decls[0].Unit.Items
	if items[0].Property == nil || items[0].Property.Key != "%mime-type" {
		t.Fatalf("expected a %%mime-type property, got %+v", items[0].Property)
	}
	if items[1].Field == nil || items[1].Field.Attrs[0].Key != "&length" {
		t.Fatalf("expected a &length attribute on the data field, got %+v", items[1].Field)
	}
}
