package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the onboarding path a user signed up through.
type Role string

const (
	RoleCulturalPartner Role = "CULTURAL_PARTNER"
	RoleLicenseBuyer    Role = "LICENSE_BUYER"
	RoleAdmin           Role = "ADMIN"
)

// ParseRole resolves a role name. An empty name resolves to LICENSE_BUYER.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.TrimSpace(s)) {
	case "":
		return RoleLicenseBuyer, true
	case RoleCulturalPartner:
		return RoleCulturalPartner, true
	case RoleLicenseBuyer:
		return RoleLicenseBuyer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// RequiredDocuments lists the document types a role must provide at registration.
func (r Role) RequiredDocuments() []DocumentType {
	switch r {
	case RoleCulturalPartner:
		return []DocumentType{DocBuktiKemitraan, DocSuratPernyataanIP}
	default:
		return nil
	}
}

// VerificationStatus tracks the review state of an account.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// CompanyProfile holds optional organisation details. Unset fields stay nil.
type CompanyProfile struct {
	CompanyName               *string `json:"companyName,omitempty" bson:"companyName,omitempty"`
	Industry                  *string `json:"industry,omitempty" bson:"industry,omitempty"`
	CompanyAddress            *string `json:"companyAddress,omitempty" bson:"companyAddress,omitempty"`
	CompanyWebsite            *string `json:"companyWebsite,omitempty" bson:"companyWebsite,omitempty"`
	CompanyRegistrationNumber *string `json:"companyRegistrationNumber,omitempty" bson:"companyRegistrationNumber,omitempty"`
}

// IsEmpty reports whether no field of the profile is set.
func (p *CompanyProfile) IsEmpty() bool {
	return p == nil || (p.CompanyName == nil && p.Industry == nil && p.CompanyAddress == nil &&
		p.CompanyWebsite == nil && p.CompanyRegistrationNumber == nil)
}

// companyProfileAliases maps every accepted profile key to its canonical attribute.
var companyProfileAliases = map[string]string{
	"companyName":               "companyName",
	"namaPerusahaan":            "companyName",
	"industry":                  "industry",
	"jenisIndustri":             "industry",
	"companyAddress":            "companyAddress",
	"alamatPerusahaan":          "companyAddress",
	"companyWebsite":            "companyWebsite",
	"situsPerusahaan":           "companyWebsite",
	"companyRegistrationNumber": "companyRegistrationNumber",
	"nomorRegistrasiPerusahaan": "companyRegistrationNumber",
}

// CompanyProfileFromMap builds a profile from canonical or localized keys.
// When both spellings of an attribute are present the canonical one wins.
// Non-string values are ignored. Returns nil when nothing was set.
func CompanyProfileFromMap(raw map[string]any) *CompanyProfile {
	if len(raw) == 0 {
		return nil
	}

	values := make(map[string]string, len(raw))
	for key, v := range raw {
		attr, ok := companyProfileAliases[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, seen := values[attr]; seen && key != attr {
			continue
		}
		values[attr] = s
	}

	pick := func(attr string) *string {
		if v, ok := values[attr]; ok {
			return &v
		}
		return nil
	}

	p := &CompanyProfile{
		CompanyName:               pick("companyName"),
		Industry:                  pick("industry"),
		CompanyAddress:            pick("companyAddress"),
		CompanyWebsite:            pick("companyWebsite"),
		CompanyRegistrationNumber: pick("companyRegistrationNumber"),
	}
	if p.IsEmpty() {
		return nil
	}
	return p
}

// User models an account on the marketplace.
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"-"`
	FullName           string             `json:"fullName,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Role               Role               `json:"role"`
	CompanyProfile     *CompanyProfile    `json:"companyProfile,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	Documents          DocumentURLs       `json:"-"`
	EmailVerifiedAt    *time.Time         `json:"emailVerifiedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// MarshalJSON renders document URLs as top-level attributes named by
// DocumentType.Field.
func (u User) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		BuktiKemitraan    string `json:"buktiKemitraan,omitempty"`
		DokumenLegal      string `json:"dokumenLegal,omitempty"`
		SuratPernyataanIP string `json:"suratPernyataanIp,omitempty"`
		DokumenKYC        string `json:"dokumenKYC,omitempty"`
		DokumenBilling    string `json:"dokumenBilling,omitempty"`
		DokumenPajak      string `json:"dokumenPajak,omitempty"`
	}{
		user:              user(u),
		BuktiKemitraan:    u.Documents[DocBuktiKemitraan],
		DokumenLegal:      u.Documents[DocDokumenLegal],
		SuratPernyataanIP: u.Documents[DocSuratPernyataanIP],
		DokumenKYC:        u.Documents[DocDokumenKYC],
		DokumenBilling:    u.Documents[DocDokumenBilling],
		DokumenPajak:      u.Documents[DocDokumenPajak],
	})
}

// UserPatch describes a partial update. Nil fields are left untouched.
type UserPatch struct {
	FullName           *string
	Phone              *string
	CompanyProfile     *CompanyProfile
	Role               *Role
	VerificationStatus *VerificationStatus
	EmailVerifiedAt    *time.Time
	Documents          DocumentURLs
}

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID string
	Role   Role
}
