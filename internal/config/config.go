package config

type Config struct {
	// Chrome 调试端点配置
	// 浏览器需要提前以 --remote-debugging-port 方式启动并登录好目标网站
	Chrome struct {
		Host                  string `json:"host"`
		Port                  int    `json:"port"`
		ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
		CallTimeoutSeconds    int    `json:"call_timeout_seconds"`
	} `json:"chrome"`

	// Spider 抓取默认参数,单个提取器配置可以覆盖
	Spider struct {
		OutputDir           string  `json:"output_dir"`
		ScrollTimes         int     `json:"scroll_times"`
		ScrollDelaySeconds  float64 `json:"scroll_delay_seconds"`
		ExpandDelaySeconds  float64 `json:"expand_delay_seconds"`
		EmptyRoundThreshold int     `json:"empty_round_threshold"`
		RetryBackoffMillis  int     `json:"retry_backoff_millis"`
	} `json:"spider"`

	Elasticsearch struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Address  string `json:"address"`
	} `json:"elasticsearch"`

	Embedder struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Model     string `json:"model"`
		BatchSize int    `json:"batch_size"`
	} `json:"embedder"`
}
