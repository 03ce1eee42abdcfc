package warehouse

import (
	"strconv"
	"time"
)

// Помощники приведения значений, прочитанных из хранилища.
// Драйвер MySQL возвращает числа и текст как []byte, хранилище в памяти
// хранит типизированные значения.

// AsString приводит значение колонки к строке
func AsString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	}
	return ""
}

// AsInt приводит значение колонки к целому числу
func AsInt(v interface{}) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case []byte:
		n, _ := strconv.Atoi(string(value))
		return n
	}
	return 0
}

// AsFloat приводит значение колонки к числу с плавающей точкой
func AsFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case []byte:
		f, _ := strconv.ParseFloat(string(value), 64)
		return f
	}
	return 0
}

// AsTime приводит значение колонки к времени
func AsTime(v interface{}) time.Time {
	switch value := v.(type) {
	case time.Time:
		return value
	case []byte:
		if t, err := time.Parse("2006-01-02 15:04:05", string(value)); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", string(value)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AsBool приводит значение колонки к логическому типу
func AsBool(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case []byte:
		return string(value) == "1" || string(value) == "true"
	}
	return false
}
