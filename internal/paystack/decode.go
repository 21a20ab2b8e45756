package paystack

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
)

// decodeVerification parses the verify envelope:
//
//	{"status": true, "message": "...", "data": {...}}
//
// Unknown fields are skipped. Nulls decode as zero values.
func decodeVerification(body []byte) (*payment.Verification, error) {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return nil, errors.New("envelope is not an object")
	}

	var (
		v         payment.Verification
		hasStatus bool
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			hasStatus = true
			b, err := optBool(d)
			v.Status = b
			return err
		case "message":
			s, err := optStr(d)
			v.Message = s
			return err
		case "data":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			tx, err := decodeTransaction(d)
			v.Data = tx
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	if !hasStatus {
		return nil, errors.New("envelope has no status")
	}
	return &v, nil
}

func decodeTransaction(d *jx.Decoder) (*payment.Transaction, error) {
	var tx payment.Transaction
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "reference":
			tx.Reference, err = optStr(d)
		case "status":
			tx.Status, err = optStr(d)
		case "paid_at":
			tx.PaidAt, err = optStr(d)
		case "amount":
			tx.Amount, err = optInt(d)
		case "customer":
			err = decodeCustomer(d, &tx.Customer)
		case "authorization":
			err = decodeAuthorization(d, &tx.Authorization)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "data")
	}
	return &tx, nil
}

func decodeCustomer(d *jx.Decoder, c *payment.Customer) error {
	if d.Next() != jx.Object {
		return d.Skip()
	}
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "email":
			c.Email, err = optStr(d)
		case "id":
			c.ID, err = optInt(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

func decodeAuthorization(d *jx.Decoder, a *payment.Authorization) error {
	if d.Next() != jx.Object {
		return d.Skip()
	}
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var (
			s   string
			err error
		)
		switch string(key) {
		case "authorization_code":
			s, err = optStr(d)
			a.AuthorizationCode = s
		case "bin":
			s, err = optStr(d)
			a.Bin = s
		case "last4":
			s, err = optStr(d)
			a.Last4 = s
		case "exp_month":
			s, err = optStr(d)
			a.ExpMonth = s
		case "exp_year":
			s, err = optStr(d)
			a.ExpYear = s
		case "channel":
			s, err = optStr(d)
			a.Channel = s
		case "card_type":
			s, err = optStr(d)
			a.CardType = s
		default:
			err = d.Skip()
		}
		return err
	})
}

// optStr reads a string, accepting null and numbers (Paystack is not
// consistent about exp_month and friends).
func optStr(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		return n.String(), err
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}

func optInt(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.Number:
		return d.Int64()
	case jx.Null:
		return 0, d.Null()
	default:
		return 0, errors.New("expected number")
	}
}

func optBool(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return false, d.Null()
	default:
		return false, d.Skip()
	}
}
