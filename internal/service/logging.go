package service

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	serviceLogger   *logrus.Logger
	serviceLoggerMu sync.RWMutex
)

// SetLogger 设置服务层日志记录器
func SetLogger(l *logrus.Logger) {
	serviceLoggerMu.Lock()
	defer serviceLoggerMu.Unlock()
	serviceLogger = l
}

// logger 获取服务层日志记录器，未设置时使用 logrus 标准记录器
func logger() *logrus.Logger {
	serviceLoggerMu.RLock()
	defer serviceLoggerMu.RUnlock()
	if serviceLogger == nil {
		return logrus.StandardLogger()
	}
	return serviceLogger
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
