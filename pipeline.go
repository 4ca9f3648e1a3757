package binpac

import (
	"github.com/binpac-go/binpac/codegen"
	"github.com/binpac-go/binpac/hilti"
	"github.com/binpac-go/binpac/sourceparse"
)

// CompileResult bundles everything a caller of Compile might want: the
// resolved AST, the per-unit grammars that were built and analyzed,
// and the emitted HILTI module (nil if diagnostics prevented codegen).
type CompileResult struct {
	Module   *Module
	Grammars map[string]*Grammar
	HILTI    *hilti.Module
}

// Compile runs the full pipeline named in §2's control flow: parse ->
// build AST -> populate scopes -> resolve IDs/types (fix-point) ->
// build grammars for every exported unit -> run the FIRST/FOLLOW
// fix-point -> report ambiguities -> emit parser functions (§4.3:
// "the code generator refuses to run if the report is non-empty").
func Compile(filename string, source []byte, cfg *Config) (*CompileResult, *Diagnostics, error) {
	diags := NewDiagnostics(cfg)

	tree, err := sourceparse.Parse(filename, source)
	if err != nil {
		diags.Report(SourceSyntaxError{Message: err.Error()})
		return nil, diags, diags.Err()
	}

	mod, err := Convert(tree)
	if err != nil {
		diags.Report(err)
		return nil, diags, diags.Err()
	}

	resolver := NewResolver(cfg, diags)
	if err := resolver.Resolve(mod); err != nil {
		return &CompileResult{Module: mod}, diags, err
	}

	builder := NewBuilder(cfg, mod, diags)
	analyzer := NewAnalyzer(cfg, builder, diags)

	grammars := map[string]*Grammar{}
	for _, d := range mod.Decls {
		if d.Kind != DeclUnit {
			continue
		}
		if !mod.Exported[d.Name.Name()] {
			continue
		}
		g, err := builder.Build(d.Name.Name())
		if err != nil {
			diags.Report(err)
			continue
		}
		if err := analyzer.Analyze(g); err != nil {
			continue
		}
		grammars[d.Name.Name()] = g
	}

	if diags.HasErrors() {
		return &CompileResult{Module: mod, Grammars: grammars}, diags, diags.Err()
	}

	hiltiMod := hilti.NewModule(mod.Name.Name())
	emitter := codegen.NewEmitter(cfg, hiltiMod)
	for name, g := range grammars {
		if _, err := emitter.EmitUnit(name, g); err != nil {
			diags.Report(SourceSyntaxError{Message: err.Error()})
		}
	}

	return &CompileResult{Module: mod, Grammars: grammars, HILTI: hiltiMod}, diags, diags.Err()
}
