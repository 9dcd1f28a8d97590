//go:build windows

package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/Leocrydis/SENomexLayers/internal/models"
)

// RPC-layer HRESULTs that the server raises when a call cannot be serviced
// right now. Mapped to RejectedError so the guard's retry loop handles them.
const (
	hrCallRejected    = 0x80010001 // RPC_E_CALL_REJECTED
	hrServerCallRetry = 0x8001010A // RPC_E_SERVERCALL_RETRYLATER
	hrDisconnected    = 0x80010108 // RPC_E_DISCONNECTED (server went away)
)

// COMConnector drives the authoring application through COM automation.
type COMConnector struct {
	// ProgID is the well-known application identifier, e.g.
	// "SolidEdge.Application".
	ProgID string
}

// ThreadHook initializes a single-threaded apartment on the worker thread.
// Every automation call this connector makes must run inside it.
func (c *COMConnector) ThreadHook() ThreadHook {
	return ThreadHook{
		Setup: func() error {
			if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
				return fmt.Errorf("initialize apartment: %w", err)
			}
			return nil
		},
		Teardown: ole.CoUninitialize,
	}
}

// DiscoverRunning attaches to an already-running instance via the running
// object table.
func (c *COMConnector) DiscoverRunning(_ context.Context) (Handle, error) {
	unknown, err := oleutil.GetActiveObject(c.ProgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRunning, c.ProgID, err)
	}
	return dispatchHandle(unknown)
}

// LaunchNew starts a fresh instance of the application.
func (c *COMConnector) LaunchNew(_ context.Context) (Handle, error) {
	unknown, err := oleutil.CreateObject(c.ProgID)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", c.ProgID, classify(err))
	}
	return dispatchHandle(unknown)
}

func dispatchHandle(unknown *ole.IUnknown) (Handle, error) {
	defer unknown.Release()
	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("query IDispatch: %w", classify(err))
	}
	return &comHandle{app: app}, nil
}

type comHandle struct {
	app *ole.IDispatch
}

func (h *comHandle) SetVisible(visible bool) error {
	_, err := oleutil.PutProperty(h.app, "Visible", visible)
	if err != nil {
		return fmt.Errorf("set Visible=%v: %w", visible, classify(err))
	}
	return nil
}

func (h *comHandle) SuppressAlerts(suppress bool) error {
	_, err := oleutil.PutProperty(h.app, "DisplayAlerts", !suppress)
	if err != nil {
		return fmt.Errorf("set DisplayAlerts=%v: %w", !suppress, classify(err))
	}
	return nil
}

func (h *comHandle) Open(_ context.Context, path string) (Document, error) {
	docsVar, err := oleutil.GetProperty(h.app, "Documents")
	if err != nil {
		return nil, fmt.Errorf("get Documents: %w", classify(err))
	}
	docs := docsVar.ToIDispatch()
	defer docs.Release()

	docVar, err := oleutil.CallMethod(docs, "Open", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, classify(err))
	}
	return &comDocument{disp: docVar.ToIDispatch()}, nil
}

func (h *comHandle) Release() {
	h.app.Release()
}

type comDocument struct {
	disp *ole.IDispatch
}

// CustomProperties reads the live "Custom" property set of the open document.
// A document without one yields an empty slice.
func (d *comDocument) CustomProperties(_ context.Context) ([]models.Property, error) {
	setsVar, err := oleutil.GetProperty(d.disp, "Properties")
	if err != nil {
		return nil, fmt.Errorf("get Properties: %w", classify(err))
	}
	sets := setsVar.ToIDispatch()
	defer sets.Release()

	customVar, err := oleutil.CallMethod(sets, "Item", models.CustomSection)
	if err != nil {
		// No user-defined section on this document.
		return nil, nil
	}
	custom := customVar.ToIDispatch()
	defer custom.Release()

	countVar, err := oleutil.GetProperty(custom, "Count")
	if err != nil {
		return nil, fmt.Errorf("get Count: %w", classify(err))
	}
	count := int(countVar.Val)

	props := make([]models.Property, 0, count)
	for i := 1; i <= count; i++ {
		itemVar, err := oleutil.CallMethod(custom, "Item", i)
		if err != nil {
			return nil, fmt.Errorf("property %d: %w", i, classify(err))
		}
		item := itemVar.ToIDispatch()

		nameVar, err := oleutil.GetProperty(item, "Name")
		if err != nil {
			item.Release()
			return nil, fmt.Errorf("property %d name: %w", i, classify(err))
		}
		valVar, err := oleutil.GetProperty(item, "Value")
		if err != nil {
			item.Release()
			return nil, fmt.Errorf("property %q value: %w", nameVar.ToString(), classify(err))
		}
		props = append(props, models.Property{
			Name:  nameVar.ToString(),
			Value: variantValue(valVar),
		})
		item.Release()
	}
	return props, nil
}

func (d *comDocument) Close(save bool) error {
	defer d.disp.Release()
	if _, err := oleutil.CallMethod(d.disp, "Close", save); err != nil {
		return fmt.Errorf("close document: %w", classify(err))
	}
	return nil
}

// variantValue maps a COM variant onto the typed value union, with a
// stringified fallback for variant types go-ole cannot decode.
func variantValue(v *ole.VARIANT) models.Value {
	defer v.Clear()
	switch val := v.Value().(type) {
	case string:
		return models.StringValue(val)
	case bool:
		return models.BoolValue(val)
	case int8:
		return models.NumberValue(float64(val))
	case int16:
		return models.NumberValue(float64(val))
	case int32:
		return models.NumberValue(float64(val))
	case int64:
		return models.NumberValue(float64(val))
	case float32:
		return models.NumberValue(float64(val))
	case float64:
		return models.NumberValue(val)
	case time.Time:
		return models.TimeValue(val)
	case nil:
		return models.StringValue("")
	default:
		return models.UnknownValue([]byte(fmt.Sprint(val)))
	}
}

// classify converts transient RPC rejections into RejectedError so the
// guard's retry policy can act on them.
func classify(err error) error {
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case hrServerCallRetry:
			return &RejectedError{Reason: RejectRetryLater, Err: err}
		case hrDisconnected:
			return &RejectedError{Reason: RejectDisconnected, Err: err}
		case hrCallRejected:
			return &RejectedError{Reason: RejectHard, Err: err}
		}
	}
	return err
}
