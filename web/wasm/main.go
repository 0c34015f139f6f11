//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-pitch/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 44100.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		method := "autocorrelation"
		if len(args) > 1 {
			method = args[1].String()
		}
		e, err := webdemo.NewEngine(sr, method)
		if err != nil {
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	api.Set("analyze", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		res := engine.Analyze(float32Slice(args[0]))

		out := js.Global().Get("Object").New()
		out.Set("frequency", res.Frequency)
		out.Set("voiced", res.Voiced)
		out.Set("reason", res.Reason)
		out.Set("label", res.Label)
		out.Set("gender", res.Gender)
		out.Set("changed", res.Changed)
		out.Set("level", res.Level)
		return out
	}))

	api.Set("spectrum", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Uint8Array").New(0)
		}
		b := engine.SpectrumBytes(float32Slice(args[0]))
		arr := js.Global().Get("Uint8Array").New(len(b))
		js.CopyBytesToJS(arr, b)
		return arr
	}))

	api.Set("label", export(func(args []js.Value) any {
		if engine == nil {
			return "neutral"
		}
		return engine.Label()
	}))

	api.Set("reset", export(func(args []js.Value) any {
		if engine != nil {
			engine.Reset()
		}
		return js.Null()
	}))

	api.Set("reply", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		u := engine.Reply(args[0].String())

		out := js.Global().Get("Object").New()
		out.Set("text", u.Text)
		out.Set("words", u.Words)
		out.Set("pitch", u.Pitch)
		out.Set("rate", u.Rate)
		out.Set("volume", u.Volume)
		out.Set("lang", u.Lang)
		return out
	}))

	js.Global().Set("AlgoPitch", api)
	select {}
}

func float32Slice(v js.Value) []float32 {
	n := v.Length()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(v.Index(i).Float())
	}
	return out
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
