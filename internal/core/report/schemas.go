package report

import "github.com/agenthands/tydrodash/internal/query"

func text(name string) query.Field   { return query.Field{Name: name, Type: query.Text} }
func number(name string) query.Field { return query.Field{Name: name, Type: query.Number} }
func date(name string) query.Field   { return query.Field{Name: name, Type: query.Date} }

var (
	totalsSchema = func(name string) *query.Schema {
		return query.NewSchema(name,
			number("total_transactions"),
			number("total_users"),
			number("total_volume_usd"),
			number("avg_amount_usd"),
			number("median_amount_usd"),
			number("max_amount_usd"),
		)
	}

	overtimeSchema = query.NewSchema("overtime",
		date("date"),
		text("event_name"),
		number("transactions"),
		number("users"),
		number("volume_usd"),
		number("average_amount_usd"),
		number("median_amount_usd"),
		number("max_amount_usd"),
	)

	depositSchema = query.NewSchema("deposit-size-distribution",
		text("deposit_size_range"),
		number("deposit_count"),
		number("total_deposit_usd"),
		number("min_amount_usd"),
		number("max_amount_usd"),
	)

	tokenFlowSchema = query.NewSchema("inflows-outflows-by-token",
		text("event_name"),
		text("symbol"),
		number("volume"),
		number("volume_usd"),
		number("average_amount"),
		number("average_amount_usd"),
	)

	bridgeTotalsSchema = query.NewSchema("total-bridge",
		number("total_borrowed_volume_of_tydro"),
		number("total_bridged_out_volume"),
		number("borrowed_vs_bridged_out"),
	)

	bridgeSchema = func(name, key string) *query.Schema {
		return query.NewSchema(name,
			text("direction"),
			text(key),
			number("transactions"),
			number("volume_usd"),
			number("average_amount_usd"),
		)
	}

	cexSchema = query.NewSchema("cex-to-ink-inflow-volume-by-chain",
		text("label"),
		number("volume_usd"),
	)

	userFlowSchema = query.NewSchema("user-behavior-before-and-after-tydro-interaction",
		text("action_type"),
		text("event_name"),
		number("users"),
	)
)
