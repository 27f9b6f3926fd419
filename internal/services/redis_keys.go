package services

const (
	KeyAccount        = "account:%s"
	KeyAccountEntries = "account:%s:entries"
	KeyAccountSeeds   = "account:%s:seeds"
	KeyAccountBets    = "account:%s:bets"
	KeyActiveSeed     = "account:%s:seed_active"
	KeySeedPair       = "seedpair:%s"
	KeyBet            = "bet:%s"
	KeyRateLimit      = "ratelimit:%s:%s"

	DefaultRateLimitBets   = 30 // max bets per minute
	DefaultRateLimitVerify = 60 // max verifications per minute
)
