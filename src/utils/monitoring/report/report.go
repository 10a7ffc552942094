package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	Preflight      *PreflightReport      `json:"preflight,omitempty"`
	Importer       *ImporterReport       `json:"importer,omitempty"`
	Staging        *StagingReport        `json:"staging,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}
