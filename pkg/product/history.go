package product

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"

	"gorm.io/datatypes"
)

// changedFields keeps the accepted keys that are present, not null and not
// an empty string.
func changedFields(fields map[string]json.RawMessage) map[string]json.RawMessage {
	changed := make(map[string]json.RawMessage)
	for _, name := range domain.AppendOnlyFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
			continue
		}
		changed[name] = trimmed
	}
	return changed
}

func classifyUpdate(changed map[string]json.RawMessage) string {
	if _, ok := changed["certifications"]; ok {
		return entities.UpdateTypeCertification
	}
	_, harvest := changed["harvestDate"]
	_, packing := changed["packingDate"]
	if harvest || packing {
		return entities.UpdateTypeDates
	}
	return entities.UpdateTypeInfo
}

func decodeString(name string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", domain.ErrInvalidField, name)
	}
	return s, nil
}

func decodeDate(name string, raw json.RawMessage) (time.Time, error) {
	s, err := decodeString(name, raw)
	if err != nil {
		return time.Time{}, err
	}
	return domain.ParseDate(s)
}

// applyChanges writes the changed fields onto p and returns the values as
// they are recorded in history. p is left untouched on error.
func applyChanges(p *entities.Product, changed map[string]json.RawMessage) (datatypes.JSONMap, error) {
	next := *p
	recorded := datatypes.JSONMap{}

	for name, raw := range changed {
		var err error
		switch name {
		case "name":
			next.Name, err = decodeString(name, raw)
		case "supplier":
			next.Supplier, err = decodeString(name, raw)
		case "farmerName":
			next.FarmerName, err = decodeString(name, raw)
		case "location":
			next.Location, err = decodeString(name, raw)
		case "packingLocation":
			next.PackingLocation, err = decodeString(name, raw)
		case "lotNumber":
			next.LotNumber, err = decodeString(name, raw)
		case "description":
			next.Description, err = decodeString(name, raw)
		case "harvestDate":
			next.HarvestDate, err = decodeDate(name, raw)
		case "packingDate":
			var t time.Time
			if t, err = decodeDate(name, raw); err == nil {
				next.PackingDate = &t
			}
		case "deliveryDate":
			var t time.Time
			if t, err = decodeDate(name, raw); err == nil {
				next.DeliveryDate = &t
			}
		case "certifications":
			var certs []entities.Certification
			if err = json.Unmarshal(raw, &certs); err != nil {
				err = fmt.Errorf("%w: certifications must be a list", domain.ErrInvalidField)
			}
			next.Certifications = certs
		}
		if err != nil {
			return nil, err
		}

		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, err
		}
		recorded[name] = value
	}

	*p = next
	return recorded, nil
}

func snapshotOf(p *entities.Product) entities.ProductSnapshot {
	certs := make([]entities.Certification, len(p.Certifications))
	copy(certs, p.Certifications)
	return entities.ProductSnapshot{
		Name:            p.Name,
		Supplier:        p.Supplier,
		FarmerName:      p.FarmerName,
		Location:        p.Location,
		PackingLocation: p.PackingLocation,
		LotNumber:       p.LotNumber,
		HarvestDate:     p.HarvestDate,
		PackingDate:     p.PackingDate,
		DeliveryDate:    p.DeliveryDate,
		Certifications:  certs,
		Description:     p.Description,
		ImageURL:        p.ImageURL,
	}
}

// HashUpdate is the SHA-256 hex digest of {productId, snapshot, timestamp}
// with the timestamp in unix milliseconds.
func HashUpdate(productID string, snapshot entities.ProductSnapshot, timestamp time.Time) (string, error) {
	payload, err := json.Marshal(struct {
		ProductID string                   `json:"productId"`
		Snapshot  entities.ProductSnapshot `json:"snapshot"`
		Timestamp int64                    `json:"timestamp"`
	}{productID, snapshot, timestamp.UnixMilli()})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyUpdate recomputes the hash of a stored history entry.
func VerifyUpdate(u entities.ProductUpdate) bool {
	hash, err := HashUpdate(u.ProductID, u.Snapshot.Data(), u.Timestamp)
	return err == nil && hash == u.BlockchainHash
}
