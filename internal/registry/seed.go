package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/normalize"
)

// knownLenders is the built-in MCA lender registry. Each lender's display
// name doubles as its seed pattern.
var knownLenders = map[string]string{
	"alliance_1st":         "1st Alliance",
	"advanced_servicing":   "Advanced Servicing",
	"alpine_advance":       "Alpine Advance",
	"balboa":               "Balboa",
	"bitty_advance":        "Bitty Advance",
	"bluevine":             "BlueVine",
	"broadway_advance":     "Broadway Advance",
	"byzfunder":            "ByzFunder",
	"can_capital":          "CAN Capital",
	"cashfloit":            "Cashfloit",
	"caymus":               "Caymus",
	"cfg_merchant":         "CFG Merchant Solutions",
	"channel":              "Channel",
	"choice_financial":     "Choice Financial",
	"cobalt_fund":          "Cobalt Fund",
	"dlp":                  "DLP",
	"doordash":             "DoorDash",
	"doordash_capital":     "DoorDash Capital",
	"ebf":                  "EBF",
	"expansion":            "Expansion",
	"forward_financing":    "Forward Financing",
	"fox_funding":          "Fox Funding",
	"fratello":             "Fratello",
	"fundamental":          "Fundamental",
	"funder":               "Funder",
	"funding_futures":      "Funding Futures",
	"funding_metrics":      "Funding Metrics/Lendini",
	"gfe":                  "Global Funding Experts (GFE)",
	"gold_buyer":           "Gold Buyer",
	"honest_funding":       "Honest Funding",
	"iou_financial":        "IOU Financial",
	"itra_ventures":        "Itra Ventures",
	"kapitus":              "Kapitus",
	"last_chance_funding":  "Last Chance Funding (LCF)",
	"lexio":                "Lexio",
	"lg":                   "LG",
	"liquidbee":            "LiquidBee",
	"mantis":               "Mantis",
	"mckensie_capital":     "McKensie Capital",
	"merch_advance_now":    "Merch Advance Now",
	"merchant_marketplace": "Merchant Market Place",
	"mint_funding":         "Mint Funding",
	"olympus_lending":      "Olympus Lending",
	"ondeck":               "OnDeck Capital",
	"pinnacle":             "Pinnacle",
	"principus":            "Principus",
	"prosperum":            "Prosperum",
	"retail_credibly":      "Retail (Credibly)",
	"rewards_network":      "Rewards Network",
	"samson":               "Samson",
	"seamless":             "Seamless",
	"silverline":           "Silverline",
	"small_business":       "Small Business",
	"speedy":               "Speedy",
	"rapid_advance":        "SBFS/Rapid Advance",
	"tvt_capital":          "TVT Capital",
}

// knownDebtCollectors is the built-in debt collector registry.
var knownDebtCollectors = map[string]string{
	"bousilla_berkovitz":        "Bousilla & Berkovitz",
	"brennan_clark":             "Brennan and Clark",
	"ccs_cccs":                  "CCS, CCCS",
	"commercial_asset_recovery": "Commercial Asset Recovery",
	"david_fogel_pc":            "David Fogel PC",
	"dcg":                       "DCG",
	"greenberg_grant_richards":  "Greenberg Grant and Richards (GG&R)",
	"ivy_receivables":           "Ivy Receivables",
	"km_recovery":               "KM Recovery",
	"mca_recovery":              "MCA Recovery",
	"mcallc":                    "MCALLC",
	"ram":                       "RAM",
	"secure_account_services":   "Secure Account Services",
	"tfs":                       "TFS",
	"triton_recovery":           "Triton Recovery",
	"zwicker_associates":        "Zwicker & Associates",
}

// KnownLenderName returns the display name of a built-in lender id.
func KnownLenderName(id string) (string, bool) {
	if name, ok := knownLenders[id]; ok {
		return name, true
	}
	name, ok := knownDebtCollectors[id]
	return name, ok
}

// Seed inserts the built-in lenders and debt collectors, each with its
// lower-cased name as a zero-usage starter pattern. Seeding is idempotent:
// existing lenders and patterns are left untouched.
func (r *Registry) Seed(ctx context.Context) error {
	seeded := 0

	seedKind := func(entries map[string]string, kind model.LenderKind) error {
		ids := make([]string, 0, len(entries))
		for id := range entries {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			lender := &model.Lender{
				ID:     id,
				Name:   entries[id],
				Kind:   kind,
				Status: model.LenderActive,
			}
			err := r.storage.CreateLender(ctx, lender)
			switch {
			case errors.Is(err, common.ErrDuplicateLender):
				// already seeded
			case err != nil:
				return fmt.Errorf("failed to seed lender %s: %w", id, err)
			default:
				seeded++
			}

			if err := r.storage.EnsurePattern(ctx, id, normalize.Key(entries[id])); err != nil {
				return fmt.Errorf("failed to seed pattern for %s: %w", id, err)
			}
		}
		return nil
	}

	if err := seedKind(knownLenders, model.KindMCALender); err != nil {
		return err
	}
	if err := seedKind(knownDebtCollectors, model.KindDebtCollector); err != nil {
		return err
	}

	slog.Info("Seeded lender registry",
		"new_lenders", seeded,
		"known_lenders", len(knownLenders),
		"debt_collectors", len(knownDebtCollectors))
	return nil
}
