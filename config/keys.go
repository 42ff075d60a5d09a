package config

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigStorePrefix     = ConfigPrefix + delimiter + "store"
	ConfigStoreBufferSize = ConfigStorePrefix + delimiter + "buffer_size"
	ConfigStoreNumWorkers = ConfigStorePrefix + delimiter + "num_workers"
	ConfigStoreSourceSize = ConfigStorePrefix + delimiter + "source_size"

	ConfigLogPrefix = ConfigPrefix + delimiter + "log"
	ConfigLogLevel  = ConfigLogPrefix + delimiter + "level"
)
