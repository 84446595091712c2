package Allocation

import (
	"fmt"

	"Basalt/Models"

	"gorm.io/gorm"
)

// SiteContext is the resolved mining-site setting shared by every
// activity in a batch
type SiteContext struct {
	MiningSiteID   uint
	LoadingPointID uint
	DumpingPointID uint
	RoadSegmentID  *uint
	Warnings       []string
}

// ResolveSiteContext derives a consistent site context by priority:
// an explicitly given active site, then the site implied by a supplied
// active road segment, then the first active site that has at least one
// active loading point, dumping point and road segment. Missing points
// inside the resolved site are filled with the site's first active
// instance. A missing road segment is only a warning.
func ResolveSiteContext(tx *gorm.DB, siteID, loadingPointID, dumpingPointID, roadSegmentID *uint) (*SiteContext, error) {
	ctx := &SiteContext{}

	site, err := resolveSite(tx, siteID, roadSegmentID)
	if err != nil {
		return nil, err
	}
	ctx.MiningSiteID = site.ID

	// Loading point
	if loadingPointID != nil {
		var point Models.LoadingPoint
		err := tx.Where("id = ? AND mining_site_id = ? AND is_active = ?", *loadingPointID, site.ID, true).
			First(&point).Error
		if err == nil {
			ctx.LoadingPointID = point.ID
		} else if err == gorm.ErrRecordNotFound {
			ctx.Warnings = append(ctx.Warnings,
				fmt.Sprintf("loading point %d not usable in site %s, falling back", *loadingPointID, site.Name))
		} else {
			return nil, err
		}
	}
	if ctx.LoadingPointID == 0 {
		var point Models.LoadingPoint
		err := tx.Where("mining_site_id = ? AND is_active = ?", site.ID, true).
			Order("id ASC").First(&point).Error
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: site %s", ErrNoLoadingPoint, site.Name)
		} else if err != nil {
			return nil, err
		}
		ctx.LoadingPointID = point.ID
	}

	// Dumping point
	if dumpingPointID != nil {
		var point Models.DumpingPoint
		err := tx.Where("id = ? AND mining_site_id = ? AND is_active = ?", *dumpingPointID, site.ID, true).
			First(&point).Error
		if err == nil {
			ctx.DumpingPointID = point.ID
		} else if err == gorm.ErrRecordNotFound {
			ctx.Warnings = append(ctx.Warnings,
				fmt.Sprintf("dumping point %d not usable in site %s, falling back", *dumpingPointID, site.Name))
		} else {
			return nil, err
		}
	}
	if ctx.DumpingPointID == 0 {
		var point Models.DumpingPoint
		err := tx.Where("mining_site_id = ? AND is_active = ?", site.ID, true).
			Order("id ASC").First(&point).Error
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: site %s", ErrNoDumpingPoint, site.Name)
		} else if err != nil {
			return nil, err
		}
		ctx.DumpingPointID = point.ID
	}

	// Road segment, optional
	if roadSegmentID != nil {
		var segment Models.RoadSegment
		err := tx.Where("id = ? AND mining_site_id = ? AND is_active = ?", *roadSegmentID, site.ID, true).
			First(&segment).Error
		if err == nil {
			ctx.RoadSegmentID = &segment.ID
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	if ctx.RoadSegmentID == nil {
		var segment Models.RoadSegment
		err := tx.Where("mining_site_id = ? AND is_active = ?", site.ID, true).
			Order("id ASC").First(&segment).Error
		if err == nil {
			ctx.RoadSegmentID = &segment.ID
		} else if err == gorm.ErrRecordNotFound {
			ctx.Warnings = append(ctx.Warnings,
				fmt.Sprintf("no active road segment in site %s, distance-based estimates skipped", site.Name))
		} else {
			return nil, err
		}
	}

	return ctx, nil
}

func resolveSite(tx *gorm.DB, siteID, roadSegmentID *uint) (*Models.MiningSite, error) {
	if siteID != nil {
		var site Models.MiningSite
		err := tx.Where("id = ? AND is_active = ?", *siteID, true).First(&site).Error
		if err == nil {
			return &site, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	if roadSegmentID != nil {
		var segment Models.RoadSegment
		err := tx.Where("id = ? AND is_active = ?", *roadSegmentID, true).First(&segment).Error
		if err == nil {
			var site Models.MiningSite
			err = tx.Where("id = ? AND is_active = ?", segment.MiningSiteID, true).First(&site).Error
			if err == nil {
				return &site, nil
			}
			if err != gorm.ErrRecordNotFound {
				return nil, err
			}
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	// Fallback search: first active site with live infrastructure of all
	// three kinds
	var sites []Models.MiningSite
	if err := tx.Where("is_active = ?", true).Order("id ASC").Find(&sites).Error; err != nil {
		return nil, err
	}
	for i := range sites {
		hasAll, err := siteHasInfrastructure(tx, sites[i].ID)
		if err != nil {
			return nil, err
		}
		if hasAll {
			return &sites[i], nil
		}
	}
	return nil, ErrNoSiteResolved
}

func siteHasInfrastructure(tx *gorm.DB, siteID uint) (bool, error) {
	var loadingPoints, dumpingPoints, segments int64
	if err := tx.Model(&Models.LoadingPoint{}).
		Where("mining_site_id = ? AND is_active = ?", siteID, true).Count(&loadingPoints).Error; err != nil {
		return false, err
	}
	if err := tx.Model(&Models.DumpingPoint{}).
		Where("mining_site_id = ? AND is_active = ?", siteID, true).Count(&dumpingPoints).Error; err != nil {
		return false, err
	}
	if err := tx.Model(&Models.RoadSegment{}).
		Where("mining_site_id = ? AND is_active = ?", siteID, true).Count(&segments).Error; err != nil {
		return false, err
	}
	return loadingPoints > 0 && dumpingPoints > 0 && segments > 0, nil
}
