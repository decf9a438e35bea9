package stamps

import (
	"fmt"
	"strings"
	"time"

	model "github.com/glkeru/loyalty/stamps/internal/models"
)

const dateLayout = "2006-01-02"

// Поля клиента, доступные в условиях сегмента
func customerFields(c model.Customer, cfg model.CardConfig) map[string]any {
	toGo := cfg.StampsRequired - c.Stamps
	if toGo < 0 {
		toGo = 0
	}
	return map[string]any{
		"id":              c.ID,
		"name":            c.Name,
		"email":           c.Email,
		"phone":           c.Phone,
		"stamps":          c.Stamps,
		"totalStamps":     c.TotalStamps,
		"rewardsRedeemed": c.RewardsRedeemed,
		"toGo":            toGo,
		"joinedDate":      c.JoinedDate.Format(dateLayout),
		"lastVisit":       c.LastVisit.Format(dateLayout),
	}
}

// Попадает ли клиент в сегмент: хотя бы один включающий критерий и ни одного исключающего.
// Сегмент без включающих критериев - все клиенты.
func matchSegment(segment model.Segment, data map[string]any) (bool, error) {
	include := len(segment.Include) == 0
	for _, c := range segment.Include {
		ok, err := checkCriteria(c, data)
		if err != nil {
			return false, err
		}
		if ok {
			include = true
			break
		}
	}
	if !include {
		return false, nil
	}
	for _, c := range segment.Exclude {
		ok, err := checkCriteria(c, data)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// Проверка одного критерия
func checkCriteria(criteria model.Criteria, data map[string]any) (bool, error) {
	switch strings.ToUpper(criteria.Operator) {
	case "OR":
		for _, c := range criteria.Conditions {
			d, ok := data[c.Field]
			if !ok {
				continue
			}
			ok, err := checkCondition(c.Value, c.Operator, d)
			if err != nil {
				return false, fmt.Errorf("criteria is wrong: %v, %s, %w", c.Field, c.Operator, err)
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case "AND", "":
		if len(criteria.Conditions) == 0 {
			return false, nil
		}
		for _, c := range criteria.Conditions {
			d, ok := data[c.Field]
			if !ok {
				return false, nil
			}
			ok, err := checkCondition(c.Value, c.Operator, d)
			if err != nil {
				return false, fmt.Errorf("criteria is wrong: %v, %s, %w", c.Field, c.Operator, err)
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown criteria operator %q", criteria.Operator)
}

// field <operator> cond
func checkCondition(cond any, operator string, field any) (bool, error) {
	result, err := compareValues(field, cond)
	if err != nil {
		return false, fmt.Errorf("condition is wrong: %w", err)
	}

	switch operator {
	case "=":
		return result == 0, nil
	case "!=":
		return result != 0, nil
	case ">":
		return result == 1, nil
	case "<":
		return result == -1, nil
	case ">=":
		return result >= 0, nil
	case "<=":
		return result <= 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", operator)
}

// 0 если равны, 1 если a больше b, -1 если меньше.
// Пробуем по очереди: даты, числа, булеан, строки
func compareValues(a, b any) (int, error) {
	// даты
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		ta, errA := time.Parse(dateLayout, sa)
		tb, errB := time.Parse(dateLayout, sb)
		if errA == nil && errB == nil {
			return ta.Compare(tb), nil
		}
		if (errA == nil) != (errB == nil) {
			return 0, fmt.Errorf("date parsing error")
		}
		return strings.Compare(sa, sb), nil
	}

	// числа
	na, aok := toFloat64(a)
	nb, bok := toFloat64(b)
	if aok && bok {
		switch {
		case na > nb:
			return 1, nil
		case na < nb:
			return -1, nil
		default:
			return 0, nil
		}
	}

	// bool
	ba, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		if ba == bb {
			return 0, nil
		}
		return -1, nil
	}

	return 0, fmt.Errorf("compare is impossible: %T and %T", a, b)
}

// преобразование в float64
func toFloat64(a any) (float64, bool) {
	switch val := a.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	}
	return 0, false
}
