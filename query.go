package driverlib

import (
	"context"

	"github.com/tebeka/selenium"
)

// tableCellColumn is the column TableCellText reads.
const tableCellColumn = 5

// IDByClass returns the id attribute of the index-th element with the given
// class.
func (d *Driver) IDByClass(ctx context.Context, class string, index int) (string, error) {
	sel := Class(class).At(index)
	if err := d.check("IDByClass"); err != nil {
		return "", err
	}
	es, err := d.findAll(sel)
	if err != nil {
		return "", opError("IDByClass", &sel, err)
	}
	if index < 0 || index >= len(es) {
		d.log.Write("Array index: "+sel.String()+" is invalid", "IDByClass", "")
		return "", opError("IDByClass", &sel, ErrIndexOutOfRange)
	}
	id, err := es[index].GetAttribute("id")
	if err != nil {
		return "", opError("IDByClass", &sel, err)
	}
	return id, nil
}

// CountByClass returns how many elements carry the given class.
func (d *Driver) CountByClass(ctx context.Context, class string) (int, error) {
	sel := Class(class)
	if err := d.check("CountByClass"); err != nil {
		return 0, err
	}
	es, err := d.findAll(sel)
	if err != nil {
		return 0, opError("CountByClass", &sel, err)
	}
	return len(es), nil
}

// Text waits LookupPause and returns the rendered text of the element with
// the given id.
func (d *Driver) Text(ctx context.Context, id string) (string, error) {
	sel := ID(id)
	if err := d.check("Text"); err != nil {
		return "", err
	}
	d.log.Enter("Text")
	if err := sleep(ctx, d.cfg.LookupPause.Duration); err != nil {
		return "", err
	}
	el, err := d.resolve(sel)
	if err != nil {
		d.log.Error("Unable to find element: "+id, "Text", err)
		return "", opError("Text", &sel, err)
	}
	text, err := el.Text()
	if err != nil {
		return "", opError("Text", &sel, err)
	}
	d.log.Leave("Text")
	return text, nil
}

// Exists waits LookupPause and reports whether the element sel addresses is
// displayed. Every failure reads as false.
func (d *Driver) Exists(ctx context.Context, sel Selector) bool {
	if d.check("Exists") != nil {
		return false
	}
	d.log.Enter("Exists")
	if err := sleep(ctx, d.cfg.LookupPause.Duration); err != nil {
		return false
	}
	el, err := d.resolve(sel)
	if err != nil {
		d.log.Write("Element does not exist: "+sel.String(), "Exists", err.Error())
		return false
	}
	ok, err := el.IsDisplayed()
	if err != nil {
		d.log.Error("Unable to check visibility: "+sel.String(), "Exists", err)
		return false
	}
	d.log.Leave("Exists")
	return ok
}

// ExistsByID is Exists for the element with the given id.
func (d *Driver) ExistsByID(ctx context.Context, id string) bool {
	return d.Exists(ctx, ID(id))
}

// ExistsByClass is Exists for the first element with the given class.
func (d *Driver) ExistsByClass(ctx context.Context, class string) bool {
	return d.Exists(ctx, Class(class))
}

// rows returns the rows of the first tbody on the page.
func (d *Driver) rows(op string) ([]selenium.WebElement, error) {
	sel := Tag("tbody")
	body, err := d.resolve(sel)
	if err != nil {
		return nil, opError(op, &sel, err)
	}
	rows, err := body.FindElements(selenium.ByTagName, "tr")
	if err != nil {
		return nil, opError(op, &sel, err)
	}
	return rows, nil
}

// TableCellText returns the text of the sixth cell of row rowIndex in the
// first tbody.
func (d *Driver) TableCellText(ctx context.Context, rowIndex int) (string, error) {
	if err := d.check("TableCellText"); err != nil {
		return "", err
	}
	rows, err := d.rows("TableCellText")
	if err != nil {
		return "", err
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return "", opError("TableCellText", nil, ErrIndexOutOfRange)
	}
	cells, err := rows[rowIndex].FindElements(selenium.ByTagName, "td")
	if err != nil {
		return "", opError("TableCellText", nil, err)
	}
	if len(cells) <= tableCellColumn {
		return "", opError("TableCellText", nil, ErrIndexOutOfRange)
	}
	text, err := cells[tableCellColumn].Text()
	if err != nil {
		return "", opError("TableCellText", nil, err)
	}
	return text, nil
}

// RowCount returns the number of rows in the first tbody.
func (d *Driver) RowCount(ctx context.Context) (int, error) {
	if err := d.check("RowCount"); err != nil {
		return 0, err
	}
	rows, err := d.rows("RowCount")
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// PressDownArrow sends one down arrow key event to the focused element.
func (d *Driver) PressDownArrow(ctx context.Context) error {
	return d.PressKey(ctx, selenium.DownArrowKey)
}

// PressKey sends key once to the focused element. KeyDown/KeyUp are not used:
// on JSON Wire Protocol sessions the client sends the key for both.
func (d *Driver) PressKey(ctx context.Context, key string) error {
	if err := d.check("PressKey"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := d.wd.ActiveElement()
	if err != nil {
		d.log.Error("Unable to find the focused element", "PressKey", err)
		return opError("PressKey", nil, err)
	}
	if err := el.SendKeys(key); err != nil {
		d.log.Error("Unable to press key", "PressKey", err)
		return opError("PressKey", nil, err)
	}
	return nil
}
