package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// ErrInvalid is wrapped by validation failures of admin writes.
var ErrInvalid = errors.New("invalid catalog record")

// Writer persists admin writes to the reference tables.
type Writer interface {
	SaveCake(ctx context.Context, c Cake) error
	DeleteCake(ctx context.Context, id string) error
	SaveDecoration(ctx context.Context, d Decoration) error
	DeleteDecoration(ctx context.Context, id int) error
	SaveCategory(ctx context.Context, c DecorationCategory) error
	SaveZone(ctx context.Context, z DeliveryZone) error
	DeleteZone(ctx context.Context, id string) error
}

// Admin applies validated admin writes: first to the Writer, when there is
// one, then to the in-memory tables.
type Admin struct {
	tables *Tables
	writer Writer
}

// NewAdmin creates an Admin. A nil writer keeps writes in memory only.
func NewAdmin(tables *Tables, writer Writer) *Admin {
	return &Admin{tables: tables, writer: writer}
}

// PutCake creates or replaces a cake.
func (a *Admin) PutCake(ctx context.Context, c Cake) error {
	if err := validateCake(c); err != nil {
		return err
	}
	if a.writer != nil {
		if err := a.writer.SaveCake(ctx, c); err != nil {
			return errors.Wrapf(err, "save cake %q", c.ID)
		}
	}
	a.tables.PutCake(c)
	return nil
}

// DeleteCake removes a cake. Orders referencing it stop resolving that line.
func (a *Admin) DeleteCake(ctx context.Context, id string) error {
	if _, ok := a.tables.Cake(id); !ok {
		return ErrNotFound
	}
	if a.writer != nil {
		if err := a.writer.DeleteCake(ctx, id); err != nil {
			return errors.Wrapf(err, "delete cake %q", id)
		}
	}
	return a.tables.DeleteCake(id)
}

// PutDecoration creates or replaces a decoration.
func (a *Admin) PutDecoration(ctx context.Context, d Decoration) error {
	switch {
	case d.ID <= 0:
		return errors.Wrap(ErrInvalid, "decoration id must be positive")
	case strings.TrimSpace(d.Name) == "":
		return errors.Wrap(ErrInvalid, "decoration name required")
	case d.Price.IsNegative():
		return errors.Wrap(ErrInvalid, "decoration price must not be negative")
	}
	if a.writer != nil {
		if err := a.writer.SaveDecoration(ctx, d); err != nil {
			return errors.Wrapf(err, "save decoration %d", d.ID)
		}
	}
	a.tables.PutDecoration(d)
	return nil
}

// DeleteDecoration removes a decoration and unlists it from every category.
// Orders referencing it resolve without it.
func (a *Admin) DeleteDecoration(ctx context.Context, id int) error {
	if _, ok := a.tables.Decoration(id); !ok {
		return ErrNotFound
	}
	if a.writer != nil {
		if err := a.writer.DeleteDecoration(ctx, id); err != nil {
			return errors.Wrapf(err, "delete decoration %d", id)
		}
	}
	return a.tables.DeleteDecoration(id)
}

// PutCategory creates or replaces a decoration category. Every listed
// decoration must exist.
func (a *Admin) PutCategory(ctx context.Context, c DecorationCategory) error {
	switch {
	case c.ID == "":
		return errors.Wrap(ErrInvalid, "category id required")
	case strings.TrimSpace(c.Name) == "":
		return errors.Wrap(ErrInvalid, "category name required")
	}
	for _, id := range c.DecorationIDs {
		if _, ok := a.tables.Decoration(id); !ok {
			return errors.Wrapf(ErrInvalid, "unknown decoration %d", id)
		}
	}
	if a.writer != nil {
		if err := a.writer.SaveCategory(ctx, c); err != nil {
			return errors.Wrapf(err, "save category %q", c.ID)
		}
	}
	a.tables.PutCategory(c)
	return nil
}

// PutZone creates or replaces a delivery zone.
func (a *Admin) PutZone(ctx context.Context, z DeliveryZone) error {
	switch {
	case z.ID == "":
		return errors.Wrap(ErrInvalid, "zone id required")
	case strings.TrimSpace(z.Name) == "":
		return errors.Wrap(ErrInvalid, "zone name required")
	case z.Fee.IsNegative():
		return errors.Wrap(ErrInvalid, "zone fee must not be negative")
	}
	if a.writer != nil {
		if err := a.writer.SaveZone(ctx, z); err != nil {
			return errors.Wrapf(err, "save zone %q", z.ID)
		}
	}
	a.tables.PutZone(z)
	return nil
}

// DeleteZone removes a delivery zone. Orders referencing it no longer
// resolve.
func (a *Admin) DeleteZone(ctx context.Context, id string) error {
	if _, ok := a.tables.Zone(id); !ok {
		return ErrNotFound
	}
	if a.writer != nil {
		if err := a.writer.DeleteZone(ctx, id); err != nil {
			return errors.Wrapf(err, "delete zone %q", id)
		}
	}
	return a.tables.DeleteZone(id)
}

func validateCake(c Cake) error {
	switch {
	case c.ID == "":
		return errors.Wrap(ErrInvalid, "cake id required")
	case strings.TrimSpace(c.Name) == "":
		return errors.Wrap(ErrInvalid, "cake name required")
	case len(c.Prices) == 0:
		return errors.Wrap(ErrInvalid, "at least one price tier required")
	case len(c.CreamOptions) > 0 && (c.DefaultCream < 0 || c.DefaultCream >= len(c.CreamOptions)):
		return errors.Wrap(ErrInvalid, "default cream out of range")
	}

	weights := make(map[string]struct{}, len(c.Prices))
	for _, p := range c.Prices {
		if p.Weight == "" {
			return errors.Wrap(ErrInvalid, "price tier weight required")
		}
		if _, dup := weights[p.Weight]; dup {
			return errors.Wrapf(ErrInvalid, "duplicate price tier %q", p.Weight)
		}
		weights[p.Weight] = struct{}{}
		if p.Amount.IsNegative() {
			return errors.Wrapf(ErrInvalid, "price tier %q amount must not be negative", p.Weight)
		}
	}
	for _, o := range c.CreamOptions {
		if err := validateCreamOption(o); err != nil {
			return err
		}
	}
	return nil
}

// validateCreamOption rejects options that would not survive the "Name (+N)"
// storage form unchanged.
func validateCreamOption(o CreamOption) error {
	switch {
	case strings.TrimSpace(o.Name) == "":
		return errors.Wrap(ErrInvalid, "cream option name required")
	case creamSurchargePattern.MatchString(o.Name):
		return errors.Wrapf(ErrInvalid, "cream option %q: name must not contain a (+N) suffix", o.Name)
	case o.Surcharge.IsNegative():
		return errors.Wrapf(ErrInvalid, "cream option %q: surcharge must not be negative", o.Name)
	case !o.Surcharge.IsInteger():
		return errors.Wrapf(ErrInvalid, "cream option %q: surcharge must be a whole amount", o.Name)
	}
	return nil
}
