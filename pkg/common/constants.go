package common

const (
	RedisStreamMarketStressRun = "market.stress.run"

	RedisStreamGroup    = "executor-group"
	RedisStreamConsumer = "executor-consumer"

	RedisKeyMarketStressLatest = "market_stress:latest"
)
