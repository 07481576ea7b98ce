package runtime

import (
	"context"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/taper"
)

// makeDiameterAtFn creates the "diameter_at" host function.
//
// diameter_at(height_m) → diameter under bark in cm
func makeDiameterAtFn(c *taper.Calculator) *object.Builtin {
	return object.NewBuiltin("diameter_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("diameter_at", 1, len(args))
		}
		h, ok := toFloat(args[0])
		if !ok {
			return object.Errorf("diameter_at: height must be a number, got %s", args[0].Type())
		}
		return object.NewFloat(c.DiameterAtHeight(h))
	})
}

// makeHeightAtFn creates the "height_at" host function.
//
// height_at(diameter_cm) → height in m
func makeHeightAtFn(c *taper.Calculator) *object.Builtin {
	return object.NewBuiltin("height_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("height_at", 1, len(args))
		}
		d, ok := toFloat(args[0])
		if !ok {
			return object.Errorf("height_at: diameter must be a number, got %s", args[0].Type())
		}
		return object.NewFloat(c.HeightAtDiameter(d))
	})
}

// makeVolumeFn creates the "volume" host function.
//
// volume(from_m, to_m) → m³ under bark
func makeVolumeFn(c *taper.Calculator) *object.Builtin {
	return object.NewBuiltin("volume", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("volume", 2, len(args))
		}
		from, ok := toFloat(args[0])
		if !ok {
			return object.Errorf("volume: from must be a number, got %s", args[0].Type())
		}
		to, ok := toFloat(args[1])
		if !ok {
			return object.Errorf("volume: to must be a number, got %s", args[1].Type())
		}
		return object.NewFloat(c.Volume(from, to))
	})
}

// makeParamFn creates "param", which reads a caller-supplied number.
//
// param(name, default) → float
func makeParamFn(params map[string]float64) *object.Builtin {
	return object.NewBuiltin("param", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("param", 2, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("param: name must be a string, got %s", args[0].Type())
		}
		def, ok := toFloat(args[1])
		if !ok {
			return object.Errorf("param: default must be a number, got %s", args[1].Type())
		}
		if v, found := params[name.Value()]; found {
			return object.NewFloat(v)
		}
		return object.NewFloat(def)
	})
}

// rowCollector accumulates emitted rows in order.
type rowCollector struct {
	rows []Row
}

// makeEmitFn creates "emit", which appends one output row.
//
// emit(map) → nil
func makeEmitFn(out *rowCollector) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("emit: %v", err)
		}
		row := make(Row, len(m))
		for k, v := range m {
			row[k] = toGo(v)
		}
		out.rows = append(out.rows, row)
		return object.Nil
	})
}

// treeObject exposes the calculator's inputs and derived constants as a map.
func treeObject(c *taper.Calculator) *object.Map {
	s := c.Summary()
	return object.NewMap(map[string]object.Object{
		"species":                       object.NewString(s.Species),
		"height_m":                      object.NewFloat(s.HeightM),
		"diameter_cm":                   object.NewFloat(s.DiameterUnderBarkCM),
		"form_factor":                   object.NewFloat(s.FormFactor),
		"form_quotient":                 object.NewFloat(s.FormQuotient),
		"form_class":                    object.NewInt(int64(s.FormClass)),
		"root_swell_share":              object.NewFloat(s.RootSwellShare),
		"diameter_at_end_of_root_swell": object.NewFloat(s.DiameterAtEndOfRootSwell),
		"diameter_at_start_of_top":      object.NewFloat(s.DiameterAtStartOfTop),
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *zap.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
