package config

type StorageDriver int

const (
	Postgres StorageDriver = iota + 1
	Redis
	Memory
)

// String converts the StorageDriver enum to a human-readable string.
func (d StorageDriver) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case Redis:
		return "redis"
	case Memory:
		return "memory"
	}
	return "unknown"
}
