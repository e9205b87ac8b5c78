package weibo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CreatedAtLayout is the layout of standardised post timestamps
const CreatedAtLayout = "2006-01-02 15:04"

var (
	relativeDateRegex = regexp.MustCompile(`^(\d+)(秒|分钟|小时)$`)
	todayDateRegex    = regexp.MustCompile(`^今天(\d{1,2}:\d{2})$`)
	monthDayRegex     = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日(\d{1,2}:\d{2})$`)
	fullDateRegex     = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日(\d{1,2}:\d{2})$`)
)

// StandardizeDate converts the card's display time into CreatedAtLayout.
// raw has spaces removed and the trailing 前 cut off. Unknown forms are
// returned unchanged.
func StandardizeDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "刚刚") {
		return now.Format(CreatedAtLayout)
	}
	if m := relativeDateRegex.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := time.Second
		switch m[2] {
		case "分钟":
			unit = time.Minute
		case "小时":
			unit = time.Hour
		}
		return now.Add(-time.Duration(n) * unit).Format(CreatedAtLayout)
	}
	if m := todayDateRegex.FindStringSubmatch(raw); m != nil {
		return now.Format("2006-01-02") + " " + padClock(m[1])
	}
	if m := monthDayRegex.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%04d-%s-%s %s", now.Year(), pad2(m[1]), pad2(m[2]), padClock(m[3]))
	}
	if m := fullDateRegex.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%s-%s-%s %s", m[1], pad2(m[2]), pad2(m[3]), padClock(m[4]))
	}
	return raw
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func padClock(s string) string {
	h, m, _ := strings.Cut(s, ":")
	return pad2(h) + ":" + m
}
