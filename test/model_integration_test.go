package modelbuilder_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	modelbuilder "github.com/ElizabethOkerio/ModelBuilder"
)

type Genre int32

const (
	GenreUnknown Genre = iota
	GenreFiction
	GenreReference
)

func (Genre) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Unknown":   int64(GenreUnknown),
		"Fiction":   int64(GenreFiction),
		"Reference": int64(GenreReference),
	}
}

type PostalAddress struct {
	Street string `json:"street"`
	City   string `json:"city" odata:"required"`
}

type CatalogItem struct {
	ID    int64  `json:"id" odata:"key"`
	Title string `json:"title" odata:"required,maxlength=256"`
}

type Book struct {
	CatalogItem
	ISBN      string    `json:"isbn" odata:"maxlength=17"`
	Genre     Genre     `json:"genre"`
	Published time.Time `json:"published"`
	AuthorID  int64     `json:"authorId"`
	Author    *Author   `json:"author" odata:"foreignKey:AuthorID"`
}

type AudioBook struct {
	CatalogItem
	Narrator string        `json:"narrator"`
	Length   time.Duration `json:"length"`
}

type Author struct {
	ID    int64          `json:"id" odata:"key"`
	Name  string         `json:"name" odata:"required"`
	Home  PostalAddress  `json:"home"`
	Books []Book         `json:"books"`
	Tags  map[string]any `json:"tags"`
}

func buildCatalog(t *testing.T) *modelbuilder.ModelBuilder {
	t.Helper()

	builder := modelbuilder.NewModelBuilder()
	if err := builder.SetNamespace("Library.Catalog"); err != nil {
		t.Fatalf("SetNamespace() error: %v", err)
	}
	if err := builder.SetContainerName("Catalog"); err != nil {
		t.Fatalf("SetContainerName() error: %v", err)
	}

	if _, err := builder.RegisterEntity(&Book{}); err != nil {
		t.Fatalf("register Book: %v", err)
	}
	if _, err := builder.RegisterEntity(&AudioBook{}); err != nil {
		t.Fatalf("register AudioBook: %v", err)
	}
	if _, err := builder.RegisterEntity(&Author{}); err != nil {
		t.Fatalf("register Author: %v", err)
	}

	root, err := modelbuilder.EntityType[CatalogItem](builder)
	if err != nil {
		t.Fatalf("resolve CatalogItem: %v", err)
	}
	root.MarkAbstract()

	publish, err := builder.Action("Publish")
	if err != nil {
		t.Fatalf("Action() error: %v", err)
	}
	if err := publish.SetBindingParameter("book", reflect.TypeOf(Book{})); err != nil {
		t.Fatalf("SetBindingParameter() error: %v", err)
	}
	if _, err := modelbuilder.Parameter[time.Time](publish, "when"); err != nil {
		t.Fatalf("add when parameter: %v", err)
	}

	byGenre, err := builder.Function("BooksByGenre")
	if err != nil {
		t.Fatalf("Function() error: %v", err)
	}
	if _, err := modelbuilder.Parameter[Genre](byGenre, "genre"); err != nil {
		t.Fatalf("add genre parameter: %v", err)
	}
	if err := byGenre.ReturnsCollectionFromEntitySet(reflect.TypeOf(Book{}), "Books"); err != nil {
		t.Fatalf("ReturnsCollectionFromEntitySet() error: %v", err)
	}
	byGenre.SetComposable(true)

	builder.Annotations().AddTerm("Org.OData.Core.V1.Description", "Library catalog schema")

	return builder
}

func findProperty(t *testing.T, cfg modelbuilder.TypeConfiguration, name string) modelbuilder.PropertyConfiguration {
	t.Helper()
	for _, property := range cfg.Properties() {
		if property.Name() == name {
			return property
		}
	}
	t.Fatalf("type %s has no property %q", cfg.FullName(), name)
	return nil
}

func TestBuildCompleteModel(t *testing.T) {
	builder := buildCatalog(t)

	model, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if model.Namespace() != "Library.Catalog" {
		t.Errorf("Namespace() = %q, want %q", model.Namespace(), "Library.Catalog")
	}
	if model.ContainerName() != "Catalog" {
		t.Errorf("ContainerName() = %q, want %q", model.ContainerName(), "Catalog")
	}

	if got := len(model.EntityTypes()); got != 4 {
		t.Errorf("len(EntityTypes()) = %d, want 4", got)
	}
	if got := len(model.ComplexTypes()); got != 1 {
		t.Errorf("len(ComplexTypes()) = %d, want 1", got)
	}
	if got := len(model.EnumTypes()); got != 1 {
		t.Errorf("len(EnumTypes()) = %d, want 1", got)
	}
	if got := len(model.NavigationSources()); got != 3 {
		t.Errorf("len(NavigationSources()) = %d, want 3", got)
	}
	if got := len(model.Operations()); got != 2 {
		t.Errorf("len(Operations()) = %d, want 2", got)
	}

	for _, name := range []string{"Books", "AudioBooks", "Authors"} {
		if _, ok := model.NavigationSource(name); !ok {
			t.Errorf("NavigationSource(%q) not found", name)
		}
	}
}

func TestConventionsShapeTheHierarchy(t *testing.T) {
	builder := buildCatalog(t)

	book, err := modelbuilder.EntityType[Book](builder)
	if err != nil {
		t.Fatalf("resolve Book: %v", err)
	}
	root, err := modelbuilder.EntityType[CatalogItem](builder)
	if err != nil {
		t.Fatalf("resolve CatalogItem: %v", err)
	}

	if book.BaseType() == nil || book.BaseType().FullName() != root.FullName() {
		t.Fatalf("Book base type = %v, want %s", book.BaseType(), root.FullName())
	}
	if !root.IsAbstract() {
		t.Error("CatalogItem should be abstract")
	}
	keys := root.Keys()
	if len(keys) != 1 || keys[0].Name != "ID" {
		t.Fatalf("CatalogItem keys = %v, want [ID]", keys)
	}
	if got := len(book.Keys()); got != 0 {
		t.Errorf("Book declares %d keys, inherited keys live on the root", got)
	}

	derived := builder.DerivedTypesOf(root)
	if len(derived) != 2 {
		t.Fatalf("DerivedTypesOf(CatalogItem) returned %d types, want 2", len(derived))
	}
}

func TestConventionsClassifyFields(t *testing.T) {
	builder := buildCatalog(t)

	author, err := modelbuilder.EntityType[Author](builder)
	if err != nil {
		t.Fatalf("resolve Author: %v", err)
	}
	if !author.IsOpen() {
		t.Error("Author has a dynamic property dictionary, should be open")
	}

	home := findProperty(t, author, "home")
	if home.Kind() != modelbuilder.PropertyKindComplex {
		t.Errorf("home kind = %s, want Complex", home.Kind())
	}

	books := findProperty(t, author, "books")
	nav, ok := books.(*modelbuilder.NavigationPropertyConfiguration)
	if !ok {
		t.Fatalf("books should be a navigation property, got %T", books)
	}
	if nav.Multiplicity() != modelbuilder.MultiplicityMany {
		t.Errorf("books multiplicity = %s, want Many", nav.Multiplicity())
	}

	book, err := modelbuilder.EntityType[Book](builder)
	if err != nil {
		t.Fatalf("resolve Book: %v", err)
	}
	authorNav, ok := findProperty(t, book, "author").(*modelbuilder.NavigationPropertyConfiguration)
	if !ok {
		t.Fatal("author should be a navigation property")
	}
	if authorNav.Multiplicity() != modelbuilder.MultiplicityZeroOrOne {
		t.Errorf("author multiplicity = %s, want ZeroOrOne", authorNav.Multiplicity())
	}
	constraints := authorNav.ReferentialConstraints()
	if len(constraints) != 1 || constraints[0].Dependent != "AuthorID" || constraints[0].Principal != "ID" {
		t.Errorf("author constraints = %v, want AuthorID -> ID", constraints)
	}

	title := findProperty(t, book.BaseType().(*modelbuilder.EntityTypeConfiguration), "title")
	if title.Kind() != modelbuilder.PropertyKindPrimitive {
		t.Errorf("title kind = %s, want Primitive", title.Kind())
	}
}

func TestOperationsSurviveBuild(t *testing.T) {
	builder := buildCatalog(t)

	model, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	actions := model.Actions()
	if len(actions) != 1 {
		t.Fatalf("len(Actions()) = %d, want 1", len(actions))
	}
	publish := actions[0]
	if !publish.IsBindable() {
		t.Error("Publish should be bound")
	}
	binding := publish.BindingParameter()
	if binding == nil || binding.TypeRef().Name() != "Library.Catalog.Book" {
		t.Errorf("Publish binding parameter = %v, want Library.Catalog.Book", binding)
	}

	functions := model.Functions()
	if len(functions) != 1 {
		t.Fatalf("len(Functions()) = %d, want 1", len(functions))
	}
	byGenre := functions[0]
	returnType, ok := byGenre.ReturnType()
	if !ok {
		t.Fatal("BooksByGenre should declare a return type")
	}
	if returnType.Name() != "Collection(Library.Catalog.Book)" {
		t.Errorf("return type = %q, want Collection(Library.Catalog.Book)", returnType.Name())
	}
	if !byGenre.IsComposable() {
		t.Error("BooksByGenre should be composable")
	}
	if byGenre.NavigationSource() == nil || byGenre.NavigationSource().Name() != "Books" {
		t.Error("BooksByGenre should return from the Books entity set")
	}
}

func TestRepeatedBuildsAgree(t *testing.T) {
	builder := buildCatalog(t)

	first, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("first Build() error: %v", err)
	}
	second, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("second Build() error: %v", err)
	}

	if first.Fingerprint() != second.Fingerprint() {
		t.Errorf("fingerprints differ across builds: %d vs %d", first.Fingerprint(), second.Fingerprint())
	}
	if !strings.HasPrefix(first.ETag(), `W/"`) {
		t.Errorf("ETag() = %q, want weak etag format", first.ETag())
	}
}

func TestBuildRejectsKeylessEntitySet(t *testing.T) {
	builder := modelbuilder.NewModelBuilder()

	type Orphan struct {
		Label string `json:"label"`
	}
	if _, err := builder.RegisterEntity(&Orphan{}); err != nil {
		t.Fatalf("register Orphan: %v", err)
	}

	_, err := builder.Build(context.Background())
	if err == nil {
		t.Fatal("Build() should fail for a keyless entity backing an entity set")
	}
	if !errors.Is(err, modelbuilder.ErrValidation) {
		t.Errorf("Build() error = %v, want ErrValidation", err)
	}
}
