package models

// All lists every persisted model, in dependency order, for schema bootstrapping in
// tests and local SQLite runs.
func All() []any {
	return []any{
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&CustomerAddress{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
