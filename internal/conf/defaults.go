package conf

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("dataset.path", "./content/produksi_pembenihan_jawaBarat_2019_2023_filtered.xlsx")
	v.SetDefault("dataset.sheet", "")

	v.SetDefault("models.dir", "./content/prophet_models")
	v.SetDefault("models.prefix", "prophet_model_")
	v.SetDefault("models.cachettl", 30*time.Minute)

	v.SetDefault("forecast.defaultperiods", 3)
	v.SetDefault("forecast.maxperiods", 50)

	v.SetDefault("output.dir", "./output")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
