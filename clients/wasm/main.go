//go:build js && wasm

// EventDP WASM — Client-side DP compositor.
// Compiled with: GOOS=js GOARCH=wasm go build -o eventdp.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/xob0t/eventdp/pkg/compose"
	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/generator"
)

// One session per page: a newer load always supersedes an older one.
var session = compose.NewSession(compose.Options{})

func main() {
	fmt.Println("EventDP WASM loaded")

	js.Global().Set("goSetEvent", js.FuncOf(setEvent))
	js.Global().Set("goLoadFlyer", js.FuncOf(loadFlyer))
	js.Global().Set("goLoadPhoto", js.FuncOf(loadPhoto))
	js.Global().Set("goClearPhoto", js.FuncOf(clearPhoto))
	js.Global().Set("goSetText", js.FuncOf(setText))
	js.Global().Set("goSetContainerWidth", js.FuncOf(setContainerWidth))
	js.Global().Set("goExport", js.FuncOf(export))
	js.Global().Set("goReset", js.FuncOf(reset))
	js.Global().Set("goComposeDP", js.FuncOf(composeDP))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func fail(err error) interface{} {
	return js.ValueOf("error: " + compose.KindOf(err) + ": " + err.Error())
}

// decodeImageArg accepts a data URL or bare base64.
func decodeImageArg(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, data, err := generator.DecodeDataURL(s)
		return data, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}

// goSetEvent(eventJSON) — switch the session to an event.
func setEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need eventJSON")
	}
	e, err := event.ParseEvent([]byte(args[0].String()))
	if err != nil {
		return fail(fmt.Errorf("%w: %w", compose.ErrValidation, err))
	}
	session.SetEvent(e)
	return js.ValueOf("ok")
}

// goLoadFlyer(base64OrDataURL) — load the flyer; returns "w,h" canvas size.
func loadFlyer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need flyer data")
	}
	data, err := decodeImageArg(args[0].String())
	if err != nil {
		return fail(fmt.Errorf("%w: %w", compose.ErrImageLoad, err))
	}
	if err := session.LoadFlyer(context.Background(), compose.FromBytes(data)); err != nil {
		return fail(err)
	}
	w, h := session.CanvasSize()
	return js.ValueOf(fmt.Sprintf("%d,%d", w, h))
}

// goLoadPhoto(base64OrDataURL) — load the attendee photo.
func loadPhoto(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need photo data")
	}
	data, err := decodeImageArg(args[0].String())
	if err != nil {
		return fail(fmt.Errorf("%w: %w", compose.ErrImageLoad, err))
	}
	if err := session.LoadPhoto(context.Background(), compose.FromBytes(data)); err != nil {
		return fail(err)
	}
	return js.ValueOf("ok")
}

func clearPhoto(this js.Value, args []js.Value) interface{} {
	session.ClearPhoto()
	return js.ValueOf("ok")
}

// goSetText(index, text) — set one text input.
func setText(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need index, text")
	}
	if err := session.SetText(args[0].Int(), args[1].String()); err != nil {
		return fail(err)
	}
	return js.ValueOf("ok")
}

// goSetContainerWidth(px) — rescale after a layout change.
func setContainerWidth(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need width")
	}
	if err := session.SetContainerWidth(args[0].Float()); err != nil {
		return fail(err)
	}
	w, h := session.CanvasSize()
	return js.ValueOf(fmt.Sprintf("%d,%d", w, h))
}

// goExport([pixelRatio]) — PNG data URL of the current composition.
func export(this js.Value, args []js.Value) interface{} {
	opts := compose.ExportOptions{}
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		opts.PixelRatio = args[0].Float()
	}
	art, err := session.Export(opts)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(art.DataURL())
}

func reset(this js.Value, args []js.Value) interface{} {
	session.Reset()
	return js.ValueOf("ok")
}

// goComposeDP(eventJSON, flyerB64, photoB64, textsJSON, containerWidth) —
// one-shot render returning a PNG data URL. photoB64 may be empty.
func composeDP(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return js.ValueOf("error: need eventJSON, flyerB64, photoB64, textsJSON, containerWidth")
	}

	if res := setEvent(this, args[:1]); res.(js.Value).String() != "ok" {
		return res
	}
	if err := session.SetContainerWidth(args[4].Float()); err != nil {
		return fail(err)
	}
	if res := loadFlyer(this, args[1:2]); strings.HasPrefix(res.(js.Value).String(), "error:") {
		return res
	}
	if photo := args[2].String(); photo != "" {
		if res := loadPhoto(this, args[2:3]); res.(js.Value).String() != "ok" {
			return res
		}
	}

	var texts []string
	if raw := args[3].String(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &texts); err != nil {
			return fail(fmt.Errorf("parse texts: %w: %w", compose.ErrValidation, err))
		}
	}
	session.SetTexts(texts)

	return export(this, nil)
}
