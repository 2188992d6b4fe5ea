// Package tags extracts relationship tags and a probable role from the
// display names people save a number under. Runs as a side effect of
// contact-book ingestion, not of the profile worker.
package tags

import (
	"strings"
	"unicode"

	"calldex/internal/profile/models"
	platformstrings "calldex/pkg/platform/strings"
)

// Match is one keyword hit: the tag to union into the identity's tag set and
// the role it implies.
type Match struct {
	Tag  string
	Role models.RelationshipRole
}

// keyword table across languages and scripts. Tokens are matched lowercased
// and exactly; multi-word markers are matched as a token sequence.
var keywordTable = map[string]Match{
	// family
	"mom":     {Tag: "family", Role: models.RoleFamily},
	"mum":     {Tag: "family", Role: models.RoleFamily},
	"mother":  {Tag: "family", Role: models.RoleFamily},
	"maa":     {Tag: "family", Role: models.RoleFamily},
	"amma":    {Tag: "family", Role: models.RoleFamily},
	"ammi":    {Tag: "family", Role: models.RoleFamily},
	"dad":     {Tag: "family", Role: models.RoleFamily},
	"papa":    {Tag: "family", Role: models.RoleFamily},
	"father":  {Tag: "family", Role: models.RoleFamily},
	"abbu":    {Tag: "family", Role: models.RoleFamily},
	"baba":    {Tag: "family", Role: models.RoleFamily},
	"bhai":    {Tag: "family", Role: models.RoleFamily},
	"brother": {Tag: "family", Role: models.RoleFamily},
	"didi":    {Tag: "family", Role: models.RoleFamily},
	"sister":  {Tag: "family", Role: models.RoleFamily},
	"uncle":   {Tag: "family", Role: models.RoleFamily},
	"chacha":  {Tag: "family", Role: models.RoleFamily},
	"mama":    {Tag: "family", Role: models.RoleFamily},
	"aunty":   {Tag: "family", Role: models.RoleFamily},
	"aunt":    {Tag: "family", Role: models.RoleFamily},
	"nana":    {Tag: "family", Role: models.RoleFamily},
	"nani":    {Tag: "family", Role: models.RoleFamily},
	"dada":    {Tag: "family", Role: models.RoleFamily},
	"dadi":    {Tag: "family", Role: models.RoleFamily},
	"wife":    {Tag: "family", Role: models.RoleFamily},
	"husband": {Tag: "family", Role: models.RoleFamily},
	"माँ":     {Tag: "family", Role: models.RoleFamily},
	"पापा":    {Tag: "family", Role: models.RoleFamily},
	"भाई":     {Tag: "family", Role: models.RoleFamily},

	// work
	"boss":      {Tag: "work", Role: models.RoleWork},
	"manager":   {Tag: "work", Role: models.RoleWork},
	"office":    {Tag: "work", Role: models.RoleWork},
	"colleague": {Tag: "work", Role: models.RoleWork},
	"hr":        {Tag: "work", Role: models.RoleWork},
	"client":    {Tag: "work", Role: models.RoleWork},
	"sir":       {Tag: "work", Role: models.RoleWork},
	"madam":     {Tag: "work", Role: models.RoleWork},

	// service
	"plumber":     {Tag: "service", Role: models.RoleService},
	"electrician": {Tag: "service", Role: models.RoleService},
	"driver":      {Tag: "service", Role: models.RoleService},
	"maid":        {Tag: "service", Role: models.RoleService},
	"cook":        {Tag: "service", Role: models.RoleService},
	"doctor":      {Tag: "service", Role: models.RoleService},
	"dr":          {Tag: "service", Role: models.RoleService},
	"dentist":     {Tag: "service", Role: models.RoleService},
	"mechanic":    {Tag: "service", Role: models.RoleService},
	"tailor":      {Tag: "service", Role: models.RoleService},
	"milkman":     {Tag: "service", Role: models.RoleService},
	"delivery":    {Tag: "service", Role: models.RoleService},
	"courier":     {Tag: "service", Role: models.RoleService},
	"landlord":    {Tag: "service", Role: models.RoleService},
	"broker":      {Tag: "service", Role: models.RoleService},
	"carpenter":   {Tag: "service", Role: models.RoleService},
	"painter":     {Tag: "service", Role: models.RoleService},
	"gym":         {Tag: "service", Role: models.RoleService},
	"salon":       {Tag: "service", Role: models.RoleService},

	// education
	"teacher":   {Tag: "education", Role: models.RoleEducation},
	"tuition":   {Tag: "education", Role: models.RoleEducation},
	"professor": {Tag: "education", Role: models.RoleEducation},
	"coach":     {Tag: "education", Role: models.RoleEducation},
	"school":    {Tag: "education", Role: models.RoleEducation},
	"college":   {Tag: "education", Role: models.RoleEducation},

	// social
	"friend":    {Tag: "social", Role: models.RoleSocial},
	"neighbour": {Tag: "social", Role: models.RoleSocial},
	"neighbor":  {Tag: "social", Role: models.RoleSocial},
	"roommate":  {Tag: "social", Role: models.RoleSocial},
	"flatmate":  {Tag: "social", Role: models.RoleSocial},
	"gymbuddy":  {Tag: "social", Role: models.RoleSocial},
	"classmate": {Tag: "social", Role: models.RoleSocial},
	"dost":      {Tag: "social", Role: models.RoleSocial},
}

// Extract returns the deduplicated tags found in a saved display name and the
// first role implied by them. Role is empty when no keyword implies one.
func Extract(displayName string) ([]string, models.RelationshipRole) {
	var (
		found []string
		role  models.RelationshipRole
	)
	for _, tok := range tokenize(displayName) {
		m, ok := keywordTable[tok]
		if !ok {
			continue
		}
		found = append(found, m.Tag)
		if role == "" {
			role = m.Role
		}
	}
	return platformstrings.DedupeAndTrim(found), role
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r)
	})
}
