package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"gorm.io/gorm"
)

// Entity types written to the trail.
const (
	EntityProduct     = "product"
	EntitySale        = "sale"
	EntityScaleConfig = "scale_config"
	EntityStockCount  = "stock_count"
	EntityReport      = "report"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("no se pudo guardar la bitácora: %w", err)
	}
	return nil
}

var ErrAlreadyUndone = errors.New("esta operación ya fue revertida")

// UndoLog reverts a create, update or delete of a product or scale
// configuration, or a stock count, and records the reversal as a new entry.
func UndoLog(logID uint, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("registro no encontrado: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, entry.EntityType, entry.EntityID); err != nil {
				return fmt.Errorf("no se pudo eliminar: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData); err != nil {
				return fmt.Errorf("no se pudo restaurar: %w", err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, entry.EntityType, entry.BeforeData); err != nil {
				return fmt.Errorf("no se pudo recrear: %w", err)
			}
		default:
			return fmt.Errorf("la acción %q no se puede revertir", entry.Action)
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar la bitácora: %w", err)
		}

		undo := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Revertido: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		return tx.Create(&undo).Error
	})
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityProduct:
		var refs int64
		tx.Model(&models.SaleItem{}).Where("product_id = ?", entityID).Count(&refs)
		if refs > 0 {
			// ya tiene ventas: se desactiva en lugar de borrar
			return tx.Model(&models.Product{}).Where("id = ?", entityID).Update("active", false).Error
		}
		return tx.Delete(&models.Product{}, "id = ?", entityID).Error
	case EntityScaleConfig:
		return tx.Delete(&models.ScaleConfig{}, "id = ?", entityID).Error
	case EntityStockCount:
		// devuelve al producto la existencia previa al conteo
		var sc models.StockCount
		if err := tx.First(&sc, "id = ?", entityID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", sc.ProductID).Update("stock", sc.Previous).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StockCount{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("tipo de entidad desconocido: %s", entityType)
	}
}

func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case EntityProduct:
		var p models.Product
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		p.Category, p.Supplier = nil, nil
		// conserva el id original para no romper referencias
		return tx.Save(&p).Error
	case EntityScaleConfig:
		var sc models.ScaleConfig
		if err := json.Unmarshal([]byte(dataJSON), &sc); err != nil {
			return err
		}
		return tx.Save(&sc).Error
	default:
		return fmt.Errorf("tipo de entidad desconocido: %s", entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case EntityProduct:
		var p models.Product
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":           p.Name,
			"code":           p.Code,
			"category_id":    p.CategoryID,
			"supplier_id":    p.SupplierID,
			"price":          p.Price,
			"price_no_tax":   p.PriceNoTax,
			"cost":           p.Cost,
			"tax_pct":        p.TaxPct,
			"sold_by_weight": p.SoldByWeight,
			"active":         p.Active,
		}).Error
	case EntityScaleConfig:
		var sc models.ScaleConfig
		if err := json.Unmarshal([]byte(dataJSON), &sc); err != nil {
			return err
		}
		return tx.Model(&models.ScaleConfig{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":         sc.Name,
			"port":         sc.Port,
			"baud_rate":    sc.BaudRate,
			"data_bits":    sc.DataBits,
			"parity":       sc.Parity,
			"stop_bits":    sc.StopBits,
			"handshake":    sc.Handshake,
			"command":      sc.Command,
			"weight_regex": sc.WeightRegex,
			"read_timeout": sc.ReadTimeout,
			"active":       sc.Active,
		}).Error
	default:
		return fmt.Errorf("tipo de entidad desconocido: %s", entityType)
	}
}
