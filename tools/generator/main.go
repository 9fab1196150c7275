// Command generator emits partial-update change sets for structs tagged with col:"...".
//
// It is run through go:generate; the struct name is the only argument:
//
//	//go:generate go run gitlab.connectwisedev.com/inventory-service/tools/generator Product
//
// Fields tagged with the "key" or "auto" option are owned by the database and get no setter.
package main

import (
	"fmt"
	"go/types"
	"os"
	"reflect"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/packages"
)

type column struct {
	field string
	name  string
	typ   types.Type
}

func main() {
	// Special env variable set by "go generate"
	goFile := os.Getenv("GOFILE")

	if len(os.Args) != 2 {
		failErr(fmt.Errorf("expected exactly one argument: [source type]"))
	}

	sourceType := os.Args[1]

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedFiles | packages.NeedSyntax}
	pkgs, err := packages.Load(cfg, fmt.Sprintf("file=%s", goFile))
	if err != nil {
		failErr(fmt.Errorf("loading packages for inspection: %v", err))
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	pkg := pkgs[0]

	obj := pkg.Types.Scope().Lookup(sourceType)
	if obj == nil {
		failErr(fmt.Errorf("%s not found in lookup", sourceType))
	}

	if _, ok := obj.(*types.TypeName); !ok {
		failErr(fmt.Errorf("%v is not a named type", obj))
	}
	structType, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		failErr(fmt.Errorf("type %v is a %T, not a struct", obj, obj.Type().Underlying()))
	}

	cols := columns(structType)
	if len(cols) == 0 {
		failErr(fmt.Errorf("type %s has no writable col fields", sourceType))
	}

	f := generate(pkg.PkgPath, pkg.Name, sourceType, cols)
	target := snakeCase(sourceType) + "_changeset_gen.go"
	if err := f.Save(target); err != nil {
		failErr(fmt.Errorf("writing %s: %v", target, err))
	}
}

func columns(structType *types.Struct) []column {
	var cols []column
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		tag := reflect.StructTag(structType.Tag(i)).Get("col")
		if tag == "" || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if opts == "key" || opts == "auto" {
			continue
		}
		cols = append(cols, column{field: field.Name(), name: name, typ: field.Type()})
	}
	return cols
}

func generate(pkgPath, pkgName, typeName string, cols []column) *jen.File {
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment("Code generated by tools/generator; DO NOT EDIT.")

	changeSet := typeName + "ChangeSet"

	fields := make([]jen.Code, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, jen.Id(c.field).Op("*").Add(typeCode(c.typ)))
	}
	f.Commentf("%s holds the fields of a partial %s update. Nil fields are left untouched.", changeSet, typeName)
	f.Type().Id(changeSet).Struct(fields...)

	var empty *jen.Statement
	for _, c := range cols {
		cond := jen.Id("c").Dot(c.field).Op("==").Nil()
		if empty == nil {
			empty = cond
			continue
		}
		empty = empty.Op("&&").Add(cond)
	}
	f.Comment("IsEmpty reports whether no field is set.")
	f.Func().Params(jen.Id("c").Id(changeSet)).Id("IsEmpty").Params().Bool().Block(
		jen.Return(empty),
	)

	f.Comment("ColumnMap returns the set fields keyed by column name.")
	f.Func().Params(jen.Id("c").Id(changeSet)).Id("ColumnMap").Params().Map(jen.String()).Interface().BlockFunc(func(g *jen.Group) {
		g.Id("m").Op(":=").Make(jen.Map(jen.String()).Interface())
		for _, c := range cols {
			g.If(jen.Id("c").Dot(c.field).Op("!=").Nil()).Block(
				jen.Id("m").Index(jen.Lit(c.name)).Op("=").Op("*").Id("c").Dot(c.field),
			)
		}
		g.Return(jen.Id("m"))
	})

	f.Commentf("Apply copies the set fields onto v.")
	f.Func().Params(jen.Id("c").Id(changeSet)).Id("Apply").Params(jen.Id("v").Op("*").Id(typeName)).BlockFunc(func(g *jen.Group) {
		for _, c := range cols {
			g.If(jen.Id("c").Dot(c.field).Op("!=").Nil()).Block(
				jen.Id("v").Dot(c.field).Op("=").Op("*").Id("c").Dot(c.field),
			)
		}
	})

	return f
}

func typeCode(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return jen.Id(obj.Name())
		}
		return jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	failErr(fmt.Errorf("unsupported field type %s", t))
	return nil
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func failErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
