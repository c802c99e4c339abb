package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reclaimworks/assay-cli/internal/recycler"
	"github.com/reclaimworks/assay-cli/pkg/geocode"
)

var (
	recyclersAddress string
	recyclersLat     float64
	recyclersLng     float64
	recyclersRadius  float64
	recyclersType    string
)

var recyclersCmd = &cobra.Command{
	Use:   "recyclers",
	Short: "Find e-waste recycling centers near a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Geocode.Key == "" {
			return eris.New("ASSAY_GEOCODE_KEY not configured")
		}
		if recyclersAddress == "" && recyclersLat == 0 && recyclersLng == 0 {
			return eris.New("--address or --lat/--lng required")
		}

		finder := recycler.NewFinder(geocode.NewClient(cfg.Geocode.Key))
		centers, err := finder.Nearby(cmd.Context(), recycler.Query{
			Address:     recyclersAddress,
			Lat:         recyclersLat,
			Lng:         recyclersLng,
			RadiusMiles: recyclersRadius,
			TypeFilter:  recyclersType,
		})
		if err != nil {
			return err
		}
		return printJSON(centers)
	},
}

func init() {
	recyclersCmd.Flags().StringVar(&recyclersAddress, "address", "", "address to search around")
	recyclersCmd.Flags().Float64Var(&recyclersLat, "lat", 0, "latitude to search around")
	recyclersCmd.Flags().Float64Var(&recyclersLng, "lng", 0, "longitude to search around")
	recyclersCmd.Flags().Float64Var(&recyclersRadius, "radius", 0, "search radius in miles (default 25)")
	recyclersCmd.Flags().StringVar(&recyclersType, "type", "", "only centers accepting this device type")
	rootCmd.AddCommand(recyclersCmd)
}
