package transport

import (
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/utils/logger"
)

// Resty logs go to trace, failures are reported as messages
type restyLogger struct {
	log *logrus.Entry
}

func newRestyLogger() (self *restyLogger) {
	self = new(restyLogger)
	self.log = logger.NewSublogger("transport-resty")
	return
}

func (self *restyLogger) Errorf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *restyLogger) Warnf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *restyLogger) Debugf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}
