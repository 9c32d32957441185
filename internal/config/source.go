package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// source resolves configuration keys. The process environment always wins
// over values read from the config file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	values, err := readFile(path)
	if err != nil {
		return source{}, err
	}
	return source{file: values}, nil
}

// readFile decodes a TOML file into DEADMARK_* keys. Tables nest with an
// underscore, so redis.addr becomes DEADMARK_REDIS_ADDR.
func readFile(path string) (map[string]string, error) {
	var raw map[string]any
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	out := make(map[string]string)
	for _, key := range md.Keys() {
		v, ok := lookupPath(raw, key)
		if !ok {
			continue
		}
		if _, table := v.(map[string]any); table {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("config file %s: key %s: %w", path, key.String(), err)
		}
		out["DEADMARK_"+strings.ToUpper(strings.Join(key, "_"))] = s
	}
	return out, nil
}

func lookupPath(m map[string]any, key toml.Key) (any, bool) {
	var cur any = m
	for _, part := range key {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = table[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := stringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// keys lists the keys read from the config file.
func (s source) keys() []string {
	keys := make([]string, 0, len(s.file))
	for k := range s.file {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) str(key, def string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return def
}

func (s source) require(key string) string {
	v := s.lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// parseOr parses key with parse, falling back to def when the key is unset
// or malformed.
func parseOr[T any](s source, key string, def T, parse func(string) (T, error)) T {
	v := s.lookup(key)
	if v == "" {
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		return def
	}
	return parsed
}

func (s source) int(key string, def int) int {
	return parseOr(s, key, def, strconv.Atoi)
}

func (s source) float(key string, def float64) float64 {
	return parseOr(s, key, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func (s source) bool(key string, def bool) bool {
	return parseOr(s, key, def, strconv.ParseBool)
}

func (s source) duration(key string, def time.Duration) time.Duration {
	return parseOr(s, key, def, time.ParseDuration)
}
