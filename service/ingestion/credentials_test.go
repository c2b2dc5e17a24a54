/*
 * @module service/ingestion/credentials_test
 * @description 推送凭证服务单元测试 - 签发、轮换、校验、停用与删除
 * @architecture 测试层 - 内存SQLite验证凭证生命周期
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 建库 -> 签发令牌 -> 校验断言
 * @rules 明文令牌不落库,哈希校验必须与明文一致
 * @dependencies testing, testify, nexuscore-service/testutil
 * @refs credentials.go
 */

package ingestion

import (
	"testing"

	"nexuscore-service/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CredentialServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *CredentialService
}

func (suite *CredentialServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.service = NewCredentialService(suite.testDB.DB)
}

func (suite *CredentialServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *CredentialServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *CredentialServiceTestSuite) TestIssueAndVerify() {
	credential, token, err := suite.service.IssueCredential("telemetry", "设备推送", "admin")
	suite.Require().NoError(err)
	suite.Len(token, 64)
	suite.True(credential.Enabled)
	suite.NotEqual(token, credential.TokenHash, "明文令牌不能落库")
	suite.Nil(credential.LastUsedAt)

	suite.Require().NoError(suite.service.Verify("telemetry", token))

	stored, err := suite.service.getBySourceKey("telemetry")
	suite.Require().NoError(err)
	suite.NotNil(stored.LastUsedAt, "校验通过后应更新最后使用时间")
}

func (suite *CredentialServiceTestSuite) TestIssueValidation() {
	_, _, err := suite.service.IssueCredential("", "", "admin")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "数据源标识不能为空")

	_, _, err = suite.service.IssueCredential("telemetry", "", "admin")
	suite.Require().NoError(err)

	_, _, err = suite.service.IssueCredential("telemetry", "重复签发", "admin")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "已存在推送凭证")
}

func (suite *CredentialServiceTestSuite) TestRotateCredential() {
	_, oldToken, err := suite.service.IssueCredential("telemetry", "", "admin")
	suite.Require().NoError(err)

	newToken, err := suite.service.RotateCredential("telemetry")
	suite.Require().NoError(err)
	suite.NotEqual(oldToken, newToken)

	suite.Error(suite.service.Verify("telemetry", oldToken), "旧令牌轮换后应立即失效")
	suite.NoError(suite.service.Verify("telemetry", newToken))
}

func (suite *CredentialServiceTestSuite) TestRotateMissingCredential() {
	_, err := suite.service.RotateCredential("ghost")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "未配置推送凭证")
}

func (suite *CredentialServiceTestSuite) TestVerifyFailures() {
	_, token, err := suite.service.IssueCredential("telemetry", "", "admin")
	suite.Require().NoError(err)

	suite.Run("令牌错误", func() {
		err := suite.service.Verify("telemetry", "wrong-token")
		suite.Require().Error(err)
		suite.Contains(err.Error(), "推送令牌无效")
	})

	suite.Run("凭证停用", func() {
		suite.Require().NoError(suite.service.SetEnabled("telemetry", false))
		err := suite.service.Verify("telemetry", token)
		suite.Require().Error(err)
		suite.Contains(err.Error(), "已停用")

		suite.Require().NoError(suite.service.SetEnabled("telemetry", true))
		suite.NoError(suite.service.Verify("telemetry", token))
	})

	suite.Run("凭证不存在", func() {
		err := suite.service.Verify("ghost", token)
		suite.Require().Error(err)
		suite.Contains(err.Error(), "未配置推送凭证")
	})
}

func (suite *CredentialServiceTestSuite) TestSetEnabledMissing() {
	err := suite.service.SetEnabled("ghost", false)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *CredentialServiceTestSuite) TestDeleteCredential() {
	_, token, err := suite.service.IssueCredential("telemetry", "", "admin")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteCredential("telemetry"))
	suite.Error(suite.service.Verify("telemetry", token))

	err = suite.service.DeleteCredential("telemetry")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *CredentialServiceTestSuite) TestListCredentials() {
	_, _, err := suite.service.IssueCredential("telemetry", "设备推送", "admin")
	suite.Require().NoError(err)
	_, _, err = suite.service.IssueCredential("orders", "订单推送", "admin")
	suite.Require().NoError(err)

	credentials, err := suite.service.ListCredentials()
	suite.Require().NoError(err)
	suite.Len(credentials, 2)
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceTestSuite))
}
