package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed key/value pair attached to a log event.
type Field struct {
	Key   string
	Value any
	add   func(*zerolog.Event)
}

func (f Field) apply(ev *zerolog.Event) {
	if f.add != nil {
		f.add(ev)
		return
	}
	ev.Interface(f.Key, f.Value)
}

func String(key, value string) Field {
	return Field{Key: key, Value: value, add: func(ev *zerolog.Event) { ev.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value, add: func(ev *zerolog.Event) { ev.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value, add: func(ev *zerolog.Event) { ev.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value, add: func(ev *zerolog.Event) { ev.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value, add: func(ev *zerolog.Event) { ev.Bool(key, value) }}
}

// Duration is rendered in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Milliseconds(), add: func(ev *zerolog.Event) { ev.Dur(key, value) }}
}

func Error(err error) Field {
	return Field{Key: zerolog.ErrorFieldName, Value: err, add: func(ev *zerolog.Event) { ev.Err(err) }}
}
