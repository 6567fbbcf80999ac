package orderview

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes a as a single JSON object.
func (a AdminOrder) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(a.ID)
	e.FieldStart("orderNumber")
	e.Str(a.OrderNumber)
	e.FieldStart("customerName")
	e.Str(a.CustomerName)
	e.FieldStart("email")
	e.Str(a.Email)
	e.FieldStart("phone")
	e.Str(a.Phone)
	e.FieldStart("cake")
	e.Str(a.Cake)
	e.FieldStart("size")
	e.Str(a.Size)
	e.FieldStart("cream")
	e.Str(a.Cream)
	e.FieldStart("topping")
	e.Str(a.Topping)
	e.FieldStart("allergies")
	e.Str(a.Allergies)
	e.FieldStart("quantity")
	e.Int(a.Quantity)
	e.FieldStart("zone")
	e.Str(a.Zone)
	e.FieldStart("address")
	e.Str(a.Address)
	e.FieldStart("deliveryDate")
	e.Str(a.DeliveryDate)
	e.FieldStart("deliveryTime")
	e.Str(a.DeliveryTime)
	e.FieldStart("total")
	e.Str(a.Total.StringFixed(2))
	e.FieldStart("status")
	e.Str(string(a.Status))
	e.FieldStart("createdAt")
	e.Str(a.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, orders []AdminOrder) error {
	var e jx.Encoder
	for _, a := range orders {
		e.Reset()
		a.Encode(&e)
		e.RawStr("\n")
		if _, err := w.Write(e.Bytes()); err != nil {
			return errors.Wrapf(err, "write order %s", a.OrderNumber)
		}
	}
	return nil
}

// ReadOrderNumbers calls fn with the orderNumber of every JSONL line. Lines
// without the field are skipped; a line that is not a JSON object fails the
// whole read.
func ReadOrderNumbers(r io.Reader, fn func(number string) error) error {
	d := jx.Decode(r, 64*1024)
	for {
		if d.Next() == jx.Invalid {
			// Invalid is reported both at end of input and on a bad token.
			err := d.Skip()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err == nil {
				err = errors.New("unexpected token")
			}
			return errors.Wrap(err, "decode export line")
		}
		var number string
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "orderNumber" {
				return d.Skip()
			}
			v, err := d.Str()
			number = v
			return err
		}); err != nil {
			return errors.Wrap(err, "decode export line")
		}
		if number == "" {
			continue
		}
		if err := fn(number); err != nil {
			return err
		}
	}
}
