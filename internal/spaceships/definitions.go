// Package spaceships holds the spaceship selector: its signal definitions,
// a sample fleet and the equivalent HCL manifest.
package spaceships

import (
	"github.com/spf13/cast"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
)

// ImageClass is added to cells rendered by the image formatter
const ImageClass = "spaceshipImage"

// required lists every capability the definitions reference
var required = []string{
	kratu.CapToggleSignal,
	kratu.CapAdjustSignal,
	kratu.CapSumScore,
	kratu.CapRankSmallToLarge,
	kratu.CapRankLargeToSmall,
	kratu.CapMoney,
	kratu.CapPercentage,
	kratu.CapSingleDecimal,
	kratu.CapBoolean,
	kratu.CapInteger,
}

// ImageFormatter renders the value as an image inside the cell. It writes into
// the cell directly and returns no node.
var ImageFormatter = kratu.NewFormatter("image", formatImage)

func formatImage(value any, cell *html.Node) (*html.Node, error) {
	img := kratu.NewElement(atom.Img)
	kratu.SetAttr(img, "src", cast.ToString(value))
	kratu.AddClass(cell, ImageClass)
	cell.AppendChild(img)
	return nil, nil
}

// Definitions builds the spaceship registry from caps. It fails when caps lacks
// any capability the definitions reference.
func Definitions(caps kratu.Capabilities) (*signals.Registry, error) {
	if err := caps.Require(required...); err != nil {
		return nil, err
	}

	toggleSignal, err := signals.NewHeaderHandlers(map[string]*kratu.EventHandler{
		"click":       caps.EventHandlers.ToggleSignal,
		"contextmenu": caps.EventHandlers.AdjustSignal,
	})
	if err != nil {
		return nil, err
	}

	f, c := caps.Formatters, caps.Calculations
	return signals.NewRegistry(
		signals.Definition{
			Name:            "name",
			CalculateWeight: c.SumScore,
		},
		signals.Definition{
			Name:            "model",
			CalculateWeight: c.SumScore,
		},
		signals.Definition{
			Name:   "imageUrl",
			Format: ImageFormatter,
		},
		signals.Definition{
			Name:                "cost",
			Format:              f.Money,
			CalculateWeight:     c.RankSmallToLarge,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "resellValueDrop",
			Format:              f.Percentage,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "engineSize",
			Format:              f.SingleDecimal,
			CalculateWeight:     c.RankLargeToSmall,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "hyperdrive",
			Format:              f.Boolean,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "kesselRunRecord",
			Format:              f.Integer,
			CalculateWeight:     c.RankSmallToLarge,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "freightCapacity",
			CalculateWeight:     c.RankLargeToSmall,
			HeaderEventHandlers: toggleSignal,
		},
		signals.Definition{
			Name:                "passengerCapacity",
			Format:              f.Integer,
			CalculateWeight:     c.RankLargeToSmall,
			HeaderEventHandlers: toggleSignal,
		},
	)
}
