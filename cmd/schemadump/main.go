// Command schemadump builds a representative sales schema and prints the
// resulting model, one line per schema element. It exists for inspecting
// builder output while developing the library.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	modelbuilder "github.com/ElizabethOkerio/ModelBuilder"
	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus int32

const (
	OrderStatusOpen OrderStatus = iota
	OrderStatusPaid
	OrderStatusShipped
	OrderStatusCancelled
)

func (OrderStatus) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Open":      int64(OrderStatusOpen),
		"Paid":      int64(OrderStatusPaid),
		"Shipped":   int64(OrderStatusShipped),
		"Cancelled": int64(OrderStatusCancelled),
	}
}

// DeliveryOptions members combine as bit flags.
type DeliveryOptions uint8

const (
	DeliveryExpress DeliveryOptions = 1 << iota
	DeliveryTracked
	DeliverySigned
)

func (DeliveryOptions) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Express": int64(DeliveryExpress),
		"Tracked": int64(DeliveryTracked),
		"Signed":  int64(DeliverySigned),
	}
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city" odata:"required"`
	Country string `json:"country" odata:"maxlength=2"`
}

type Customer struct {
	ID     int64           `json:"id" odata:"key"`
	Name   string          `json:"name" odata:"required,maxlength=128"`
	Home   ShippingAddress `json:"home"`
	Orders []Order         `json:"orders"`
}

type Order struct {
	ID         int64           `json:"id" odata:"key"`
	CreatedAt  time.Time       `json:"createdAt"`
	Status     OrderStatus     `json:"status"`
	Options    DeliveryOptions `json:"options" odata:"flags"`
	Total      decimal.Decimal `json:"total" odata:"precision=12,scale=2"`
	CustomerID int64           `json:"customerId"`
	Customer   *Customer       `json:"customer" odata:"foreignKey:CustomerID"`
	Lines      []OrderLine     `json:"lines" odata:"contained"`
}

type OrderLine struct {
	ID       int64   `json:"id" odata:"key"`
	SKU      string  `json:"sku" odata:"required"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price"`
}

type Warehouse struct {
	ID       int64                       `json:"id" odata:"key"`
	Name     string                      `json:"name"`
	Location modelbuilder.GeographyPoint `json:"location"`
}

type SalesSettings struct {
	ID       int64  `json:"id" odata:"key"`
	Currency string `json:"currency" odata:"maxlength=3,default=EUR"`
}

func main() {
	namespace := flag.String("namespace", "Sample.Sales", "schema namespace")
	container := flag.String("container", "Sales", "entity container name")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	builder := modelbuilder.NewModelBuilder()
	builder.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := builder.SetNamespace(*namespace); err != nil {
		log.Fatal(err)
	}
	if err := builder.SetContainerName(*container); err != nil {
		log.Fatal(err)
	}

	if _, err := builder.RegisterEntity(&Customer{}); err != nil {
		log.Fatal(err)
	}
	if _, err := builder.RegisterEntity(&Order{}); err != nil {
		log.Fatal(err)
	}
	if _, err := builder.RegisterEntity(&Warehouse{}); err != nil {
		log.Fatal(err)
	}
	if _, err := builder.RegisterSingleton(&SalesSettings{}, "Settings"); err != nil {
		log.Fatal(err)
	}
	if err := declareOperations(builder); err != nil {
		log.Fatal(err)
	}

	model, err := builder.Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	dump(model)
}

func declareOperations(builder *modelbuilder.ModelBuilder) error {
	cancel, err := builder.Action("Cancel")
	if err != nil {
		return err
	}
	if err := cancel.SetBindingParameter("order", reflect.TypeOf(Order{})); err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[string](cancel, "reason"); err != nil {
		return err
	}

	since, err := builder.Function("OrdersSince")
	if err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[time.Time](since, "cutoff"); err != nil {
		return err
	}
	return since.ReturnsCollectionFromEntitySet(reflect.TypeOf(Order{}), "Orders")
}

func dump(model *modelbuilder.Model) {
	fmt.Printf("model %s (container %s, etag %s)\n", model.Namespace(), model.ContainerName(), model.ETag())

	for _, enum := range model.EnumTypes() {
		fmt.Printf("\nenum %s : %s", enum.FullName(), enum.UnderlyingType())
		if enum.IsFlags() {
			fmt.Print(" flags")
		}
		fmt.Println()
		for _, member := range enum.Members() {
			fmt.Printf("  member %s = %d\n", member.Name, member.Value)
		}
	}

	for _, complexType := range model.ComplexTypes() {
		fmt.Printf("\ncomplex %s\n", complexType.FullName())
		dumpProperties(complexType)
	}

	for _, entity := range model.EntityTypes() {
		fmt.Printf("\nentity %s", entity.FullName())
		if entity.BaseType() != nil {
			fmt.Printf(" : %s", entity.BaseType().FullName())
		}
		if entity.IsAbstract() {
			fmt.Print(" abstract")
		}
		if entity.IsOpen() {
			fmt.Print(" open")
		}
		fmt.Println()
		for _, key := range entity.Keys() {
			fmt.Printf("  key %s\n", key.Name)
		}
		dumpProperties(entity)
	}

	fmt.Println()
	for _, source := range model.NavigationSources() {
		fmt.Printf("%s %s -> %s\n", source.Kind(), source.Name(), source.EntityType().FullName())
	}
	for _, op := range model.Operations() {
		fmt.Printf("%s %s(%s)", op.Kind(), op.FullName(), signature(op))
		if returnType, ok := op.ReturnType(); ok {
			fmt.Printf(" -> %s", returnType.Name())
		}
		fmt.Println()
	}
}

func dumpProperties(cfg modelbuilder.TypeConfiguration) {
	for _, property := range cfg.Properties() {
		switch p := property.(type) {
		case *modelbuilder.PrimitivePropertyConfiguration:
			fmt.Printf("  property %s %s%s nullable=%t\n", p.Name(), p.PrimitiveKind(), facets(p), p.Nullable())
		case *modelbuilder.EnumPropertyConfiguration:
			fmt.Printf("  property %s %s nullable=%t\n", p.Name(), p.EnumType().FullName(), p.Nullable())
		case *modelbuilder.ComplexPropertyConfiguration:
			fmt.Printf("  property %s %s nullable=%t\n", p.Name(), p.ComplexType().FullName(), p.Nullable())
		case *modelbuilder.CollectionPropertyConfiguration:
			fmt.Printf("  property %s %s\n", p.Name(), p.ElementRef().Name())
		case *modelbuilder.UntypedPropertyConfiguration:
			fmt.Printf("  property %s Edm.Untyped\n", p.Name())
		case *modelbuilder.NavigationPropertyConfiguration:
			contained := ""
			if p.ContainsTarget() {
				contained = " contained"
			}
			fmt.Printf("  navigation %s -> %s (%s%s)\n", p.Name(), p.Target().FullName(), p.Multiplicity(), contained)
		}
	}
}

func facets(p *modelbuilder.PrimitivePropertyConfiguration) string {
	var parts []string
	if length, ok := p.MaxLength(); ok {
		parts = append(parts, fmt.Sprintf("maxlength=%d", length))
	}
	if precision, ok := p.Precision(); ok {
		parts = append(parts, fmt.Sprintf("precision=%d", precision))
	}
	if scale, ok := p.Scale(); ok {
		parts = append(parts, fmt.Sprintf("scale=%d", scale))
	}
	if srid, ok := p.SRID(); ok {
		parts = append(parts, fmt.Sprintf("srid=%d", srid))
	}
	if value, ok := p.DefaultValue(); ok {
		parts = append(parts, "default="+value)
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ",") + "]"
}

func signature(op modelbuilder.Operation) string {
	parts := make([]string, 0, len(op.Parameters()))
	for _, parameter := range op.Parameters() {
		parts = append(parts, parameter.Name()+" "+parameter.TypeRef().Name())
	}
	return strings.Join(parts, ", ")
}
