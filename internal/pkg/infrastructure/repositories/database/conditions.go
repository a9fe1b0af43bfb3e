package database

type ConditionFunc func(*Condition) *Condition

type Condition struct {
	PlantProfileName string

	ascending bool
	offset    *int
	limit     *int
}

func WithPlantProfileName(name string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.PlantProfileName = name
		return c
	}
}

// WithAscendingOrder returns readings oldest first. Default order is newest first.
func WithAscendingOrder() ConditionFunc {
	return func(c *Condition) *Condition {
		c.ascending = true
		return c
	}
}

func WithOffset(offset int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.offset = &offset
		return c
	}
}

func WithLimit(limit int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.limit = &limit
		return c
	}
}

func newCondition(conditions ...ConditionFunc) *Condition {
	c := &Condition{}
	for _, fn := range conditions {
		fn(c)
	}
	return c
}
